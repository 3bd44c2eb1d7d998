package migration

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Migration-specific error kinds. Every one of them is terminal to the run
// that produced it; none is retried.
var (
	// ErrInvalidIdentityFormat indicates that an identifier or file name is not
	// of the form {timestamp}-{slug}
	ErrInvalidIdentityFormat = errors.New("invalid migration identity format")

	// ErrDirectoryUnreadable indicates that the migrations directory could not be listed
	ErrDirectoryUnreadable = errors.New("migration directory unreadable")

	// ErrFilesystem indicates a failure while writing a migration template
	ErrFilesystem = errors.New("migration filesystem error")

	// ErrConnection indicates that no session could be established
	ErrConnection = errors.New("database connection failed")

	// ErrContentLoad indicates that a migration's backing artifact could not be read
	ErrContentLoad = errors.New("migration content could not be loaded")

	// ErrStatementExecution indicates that the database rejected a statement
	ErrStatementExecution = errors.New("migration statement failed")
)

// FileSystemError wraps file system related errors during migration operations
type FileSystemError struct {
	Kind      error  // One of ErrDirectoryUnreadable, ErrFilesystem or ErrContentLoad
	Path      string // File or directory path
	Operation string // File operation (read, list, create, etc.)
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", e.Kind, e.Operation, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error kind of e.
func (e *FileSystemError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewFileSystemError creates a new FileSystemError
func NewFileSystemError(kind error, path, operation string, err error) *FileSystemError {
	return &FileSystemError{
		Kind:      kind,
		Path:      path,
		Operation: operation,
		Err:       err,
	}
}

// ConnectionError reports a failure to establish the run's session.
type ConnectionError struct {
	Host string
	Err  error
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%v to %s: %v", ErrConnection, RedactHost(e.Host), e.Err)
}

// Unwrap returns the underlying error
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is matches ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// RedactHost masks the password of URL-shaped hosts such as
// postgres://user:pass@db/app. Other hosts are returned unchanged.
func RedactHost(host string) string {
	scheme, rest, ok := strings.Cut(host, "://")
	if !ok || !strings.Contains(rest, "@") {
		return host
	}
	if u, err := url.Parse(host); err == nil {
		return u.Redacted()
	}
	at := strings.LastIndex(rest, "@")
	return scheme + "://xxxxx" + rest[at:]
}

// StatementExecutionError carries everything an operator needs to locate and
// fix the statement that stopped a run.
type StatementExecutionError struct {
	Migration string // Canonical identifier of the failing migration
	Position  int    // 1-based position of the migration in the run
	Total     int    // Number of migrations in the run
	Statement string // Text of the rejected statement
	Err       error  // Error returned by the database
}

// Error implements the error interface
func (e *StatementExecutionError) Error() string {
	return fmt.Sprintf("failed to apply migration %s at %d/%d: %v\nstatement: %s",
		e.Migration, e.Position, e.Total, e.Err, e.Statement)
}

// Unwrap returns the database error
func (e *StatementExecutionError) Unwrap() error {
	return e.Err
}

// Is matches ErrStatementExecution.
func (e *StatementExecutionError) Is(target error) bool {
	return target == ErrStatementExecution
}

// ErrorKind maps migration errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrStatementExecution):
		return "statement_execution"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrContentLoad):
		return "content_load"
	case errors.Is(err, ErrDirectoryUnreadable):
		return "directory_unreadable"
	case errors.Is(err, ErrInvalidIdentityFormat):
		return "invalid_identity"
	case errors.Is(err, ErrFilesystem):
		return "filesystem"
	}
	return "unexpected"
}
