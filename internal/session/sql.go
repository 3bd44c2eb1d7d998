package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL/CockroachDB driver ("pgx")
	_ "modernc.org/sqlite"             // SQLite driver ("sqlite")
)

// SQL driver names registered by the blank imports above.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// SQLConfig holds the settings of a database/sql backed session
type SQLConfig struct {
	// Driver is the registered database/sql driver name
	Driver string

	// DSN is the data source name handed to the driver
	DSN string

	// BusyTimeout sets how long SQLite waits for database locks
	BusyTimeout time.Duration

	// EnableForeignKeys enables SQLite foreign key constraint checking
	EnableForeignKeys bool

	// ConnectTimeout bounds the initial ping
	ConnectTimeout time.Duration
}

// ValidateConfig validates the SQL session configuration
func (c SQLConfig) ValidateConfig() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported SQL driver %q", c.Driver)
	}

	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("DSN cannot be empty")
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	if c.ConnectTimeout < 0 {
		return fmt.Errorf("ConnectTimeout cannot be negative")
	}

	return nil
}

// SQL is a Session over a single database/sql connection.
type SQL struct {
	db *sql.DB
}

// OpenSQL opens and pings a database/sql session described by config.
func OpenSQL(ctx context.Context, config SQLConfig) (*SQL, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid SQL session configuration: %w", err)
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", config.Driver, err)
	}

	// One connection: statements of a run must observe each other's effects
	// and never run concurrently.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", config.Driver, err)
	}

	if config.Driver == DriverSQLite {
		if err := configureSQLite(ctx, db, config); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure SQLite database: %w", err)
		}
	}

	return &SQL{db: db}, nil
}

// configureSQLite applies SQLite-specific PRAGMA settings to the connection
func configureSQLite(ctx context.Context, db *sql.DB, config SQLConfig) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", config.BusyTimeout.Milliseconds()),
	}
	if config.EnableForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}
	return nil
}

// Exec implements migration.Session.
func (s *SQL) Exec(ctx context.Context, statement string) error {
	_, err := s.db.ExecContext(ctx, statement)
	return err
}

// DB exposes the underlying handle, mostly for inspection in tests.
func (s *SQL) DB() *sql.DB {
	return s.db
}

// Close implements migration.Session.
func (s *SQL) Close() error {
	return s.db.Close()
}
