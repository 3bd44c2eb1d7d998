package testfixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/scm/internal/migration"
)

// MigrationFile is one artifact written by WriteMigrations.
type MigrationFile struct {
	ID   string // Canonical identifier, e.g. "20230101000000-init"
	Body string
}

// WriteMigrations creates dir and writes each file as <ID>.cql.
func WriteMigrations(tb testing.TB, dir string, files ...MigrationFile) {
	tb.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tb.Fatalf("failed to create migrations directory: %v", err)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.ID+migration.Extension)
		if err := os.WriteFile(path, []byte(f.Body), 0o644); err != nil {
			tb.Fatalf("failed to write migration %s: %v", f.ID, err)
		}
	}
}

// MigrationsDir writes files into a fresh temporary migrations directory and
// returns its path.
func MigrationsDir(tb testing.TB, files ...MigrationFile) string {
	tb.Helper()
	dir := filepath.Join(tb.TempDir(), migration.DefaultDir)
	WriteMigrations(tb, dir, files...)
	return dir
}
