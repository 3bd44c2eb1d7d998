// Package session turns a connection descriptor into a live database session.
//
// The host string of an environment selects the back end:
//
//	sqlite:<dsn>                 SQLite through modernc.org/sqlite
//	postgres://... postgresql:// PostgreSQL or CockroachDB through pgx
//	cql://h1,h2:9042 or h1,h2    ScyllaDB/Cassandra contact points through gocql
package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/scm/internal/migration"
)

// Kind identifies a session back end.
type Kind string

// Supported back ends.
const (
	KindCQL      Kind = "cql"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// Options tune the sessions produced by a Dialer. Timeouts here belong to the
// connection layer; the applier imposes none of its own.
type Options struct {
	ConnectTimeout time.Duration
	Timeout        time.Duration
	Consistency    string
}

// DefaultOptions mirrors the driver defaults with a quorum consistency.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: 10 * time.Second,
		Timeout:        30 * time.Second,
		Consistency:    "quorum",
	}
}

// Dialer implements migration.Dialer.
type Dialer struct {
	options Options
	logger  *slog.Logger
}

// NewDialer returns a Dialer using options.
func NewDialer(options Options, logger *slog.Logger) *Dialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialer{options: options, logger: logger}
}

// Dial implements migration.Dialer.
func (d *Dialer) Dial(ctx context.Context, descriptor migration.ConnectionDescriptor) (migration.Session, error) {
	kind, target := Route(descriptor.Host)
	d.logger.Debug("dialing database", "kind", string(kind))

	switch kind {
	case KindSQLite:
		s, err := OpenSQL(ctx, SQLConfig{
			Driver:            DriverSQLite,
			DSN:               target,
			BusyTimeout:       d.options.Timeout,
			EnableForeignKeys: true,
			ConnectTimeout:    d.options.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindPostgres:
		s, err := OpenSQL(ctx, SQLConfig{
			Driver:         DriverPostgres,
			DSN:            target,
			ConnectTimeout: d.options.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := OpenCQL(CQLConfig{
		Hosts:          splitHosts(target),
		Consistency:    d.options.Consistency,
		ConnectTimeout: d.options.ConnectTimeout,
		Timeout:        d.options.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Route picks the back end for host and returns the driver-specific target.
func Route(host string) (Kind, string) {
	host = strings.TrimSpace(host)
	lower := strings.ToLower(host)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		return KindSQLite, host[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite:"):
		return KindSQLite, host[len("sqlite:"):]
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres, host
	case strings.HasPrefix(lower, "cql://"):
		return KindCQL, host[len("cql://"):]
	}
	return KindCQL, host
}

func splitHosts(target string) []string {
	var hosts []string
	for _, host := range strings.Split(target, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}
