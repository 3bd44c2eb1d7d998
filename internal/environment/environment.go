// Package environment stores named connection targets as small TOML files.
//
// An environment named "dev" lives in dev.scm.toml:
//
//	[connection]
//	host = "localhost:9042"
package environment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/example/scm/internal/migration"
)

const (
	// Suffix is appended to an environment name to form its file name.
	Suffix = ".scm.toml"

	// DefaultName is the environment used when none is requested.
	DefaultName = "dev"

	// DefaultHost is the host written by Create when none is given.
	DefaultHost = "localhost"
)

var (
	// ErrNotFound is returned when the environment file does not exist.
	ErrNotFound = errors.New("environment: not found")

	// ErrAlreadyExists is returned by Create when the file is already present.
	ErrAlreadyExists = errors.New("environment: already exists")

	// ErrInvalidName is returned for names that cannot be used as a file stem.
	ErrInvalidName = errors.New("environment: invalid name")
)

// File is the content of an environment file.
type File struct {
	Connection Connection `toml:"connection"`
}

// Connection is the [connection] table of an environment file.
type Connection struct {
	Host string `toml:"host"`
}

// Descriptor returns the connection descriptor handed to the applier.
func (f File) Descriptor() migration.ConnectionDescriptor {
	return migration.ConnectionDescriptor{Host: f.Connection.Host}
}

// Store reads and writes environment files in one directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. An empty dir means the working
// directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// Path returns the file path of the named environment.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+Suffix)
}

// Get loads the named environment.
func (s *Store) Get(name string) (File, error) {
	if err := validateName(name); err != nil {
		return File{}, err
	}

	var file File
	path := s.Path(name)
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return File{}, fmt.Errorf("failed to parse environment file %s: %w", path, err)
	}
	if strings.TrimSpace(file.Connection.Host) == "" {
		return File{}, fmt.Errorf("environment file %s has no connection host", path)
	}
	return file, nil
}

// Create writes a new environment file. Existing files are left untouched.
func (s *Store) Create(name, host string) (File, error) {
	if err := validateName(name); err != nil {
		return File{}, err
	}
	if strings.TrimSpace(host) == "" {
		host = DefaultHost
	}

	file := File{Connection: Connection{Host: host}}
	path := s.Path(name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return File{}, fmt.Errorf("failed to create environment directory %s: %w", s.dir, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return File{}, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		return File{}, fmt.Errorf("failed to create environment %s: %w", name, err)
	}
	if err := toml.NewEncoder(f).Encode(file); err != nil {
		f.Close()
		return File{}, fmt.Errorf("failed to serialize environment %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return File{}, fmt.Errorf("failed to write environment %s: %w", name, err)
	}
	return file, nil
}

// Delete removes the named environment file.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.Path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete environment %s: %w", name, err)
	}
	return nil
}

// List returns the names of every environment in the directory, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list environments in %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), Suffix))
	}
	sort.Strings(names)
	return names, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
