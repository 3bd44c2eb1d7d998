package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/scm/internal/migration"
	"github.com/example/scm/internal/session"
)

// SQLiteHarness points a run at a temporary SQLite database file so tests
// can apply migrations for real and inspect the resulting schema.
type SQLiteHarness struct {
	Path       string
	Descriptor migration.ConnectionDescriptor

	inspect *session.SQL
}

// NewSQLiteHarness creates the database file and an inspection session that
// is closed when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scm.db")
	inspect, err := session.OpenSQL(context.Background(), session.SQLConfig{
		Driver: session.DriverSQLite,
		DSN:    path,
	})
	if err != nil {
		tb.Fatalf("failed to open sqlite database: %v", err)
	}
	tb.Cleanup(func() { _ = inspect.Close() })

	return &SQLiteHarness{
		Path:       path,
		Descriptor: migration.ConnectionDescriptor{Host: "sqlite:" + path},
		inspect:    inspect,
	}
}

// Tables returns the names of the user tables, sorted.
func (h *SQLiteHarness) Tables(tb testing.TB) []string {
	return h.names(tb, "table")
}

// Indexes returns the names of the explicitly created indexes, sorted.
func (h *SQLiteHarness) Indexes(tb testing.TB) []string {
	return h.names(tb, "index")
}

func (h *SQLiteHarness) names(tb testing.TB, kind string) []string {
	tb.Helper()
	rows, err := h.inspect.DB().Query(
		`SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name`, kind)
	if err != nil {
		tb.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			tb.Fatalf("failed to scan name: %v", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		tb.Fatalf("failed to iterate sqlite_master: %v", err)
	}
	return names
}
