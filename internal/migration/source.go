package migration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultDir is the migrations directory relative to the working directory.
	DefaultDir = "migrations"

	// Extension is the file extension of every migration artifact.
	Extension = ".cql"

	templateBody = "-- %s\n\n-- Write your migration here"
)

// Source discovers migrations in a directory and reads their contents. The
// directory is the only record of which migrations exist.
type Source struct {
	dir string
	now func() time.Time
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithClock overrides the time source used to allocate new identities.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSource returns a Source rooted at dir. An empty dir means DefaultDir.
func NewSource(dir string, opts ...SourceOption) *Source {
	if dir == "" {
		dir = DefaultDir
	}
	s := &Source{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the migrations directory.
func (s *Source) Dir() string {
	return s.dir
}

// Path returns the artifact path of id.
func (s *Source) Path(id Identity) string {
	return filepath.Join(s.dir, id.Filename(Extension))
}

// ListAll returns every migration in the directory sorted ascending by
// timestamp. A single unparsable file name fails the whole listing so that
// nothing runs until the naming is fixed.
func (s *Source) ListAll() (Set, error) {
	dir, err := os.Open(s.dir)
	if err != nil {
		return nil, NewFileSystemError(ErrDirectoryUnreadable, s.dir, "open directory", err)
	}
	defer dir.Close()

	// File.ReadDir keeps the enumeration order of the file system, which
	// decides the order of migrations sharing a timestamp.
	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, NewFileSystemError(ErrDirectoryUnreadable, s.dir, "read directory", err)
	}

	set := make(Set, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, err := ParseIdentity(strings.TrimSuffix(entry.Name(), Extension))
		if err != nil {
			return nil, fmt.Errorf("migration file %s: %w", filepath.Join(s.dir, entry.Name()), err)
		}
		set = append(set, New(id))
	}

	set.Sort()
	return set, nil
}

// ResolveOne returns the migration named by id without listing the directory.
func (s *Source) ResolveOne(id string) (Migration, error) {
	identity, err := ParseIdentity(id)
	if err != nil {
		return Migration{}, err
	}
	return New(identity), nil
}

// CreateTemplate allocates a new identity for title and writes a commented
// template for it, creating the directory when needed. An existing file is
// never overwritten.
func (s *Source) CreateTemplate(title string) (Migration, error) {
	id := NewIdentity(title, s.now())

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Migration{}, NewFileSystemError(ErrFilesystem, s.dir, "create directory", err)
	}

	path := s.Path(id)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Migration{}, NewFileSystemError(ErrFilesystem, path, "create file", err)
	}

	body := fmt.Sprintf(templateBody, commentLine(title))
	if _, err := file.WriteString(body); err != nil {
		file.Close()
		return Migration{}, NewFileSystemError(ErrFilesystem, path, "write file", err)
	}
	if err := file.Close(); err != nil {
		return Migration{}, NewFileSystemError(ErrFilesystem, path, "close file", err)
	}

	m := New(id)
	m.content = &body
	return m, nil
}

// Load implements ContentLoader by reading the artifact of id.
func (s *Source) Load(_ context.Context, id Identity) (string, error) {
	path := s.Path(id)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", NewFileSystemError(ErrContentLoad, path, "read file", err)
	}
	return string(content), nil
}

// commentLine keeps a title on the single leading comment line. Separators
// are dropped so the whole template stays one comment statement.
func commentLine(title string) string {
	title = strings.ReplaceAll(title, StatementSeparator, " ")
	return strings.Join(strings.Fields(title), " ")
}
