package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

// CQLConfig holds the settings of a ScyllaDB/Cassandra session.
type CQLConfig struct {
	// Hosts are the contact points, each "host" or "host:port"
	Hosts []string

	// Consistency is the consistency level name (e.g. "quorum", "one")
	Consistency string

	// ConnectTimeout bounds the initial connection to each host
	ConnectTimeout time.Duration

	// Timeout bounds every statement round trip
	Timeout time.Duration
}

// ValidateConfig validates the CQL session configuration.
func (c CQLConfig) ValidateConfig() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one CQL host is required")
	}
	for _, host := range c.Hosts {
		if strings.TrimSpace(host) == "" {
			return fmt.Errorf("CQL host cannot be empty")
		}
	}
	if c.Consistency != "" {
		if _, err := gocql.ParseConsistencyWrapper(c.Consistency); err != nil {
			return fmt.Errorf("invalid consistency %q: %w", c.Consistency, err)
		}
	}
	if c.ConnectTimeout < 0 || c.Timeout < 0 {
		return fmt.Errorf("CQL timeouts cannot be negative")
	}
	return nil
}

// CQL is a Session over a gocql session.
type CQL struct {
	session *gocql.Session
}

// OpenCQL connects to the cluster described by config.
func OpenCQL(config CQLConfig) (*CQL, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid CQL session configuration: %w", err)
	}

	cluster := gocql.NewCluster(config.Hosts...)
	if config.Consistency != "" {
		consistency, _ := gocql.ParseConsistencyWrapper(config.Consistency)
		cluster.Consistency = consistency
	}
	if config.ConnectTimeout > 0 {
		cluster.ConnectTimeout = config.ConnectTimeout
	}
	if config.Timeout > 0 {
		cluster.Timeout = config.Timeout
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", strings.Join(config.Hosts, ","), err)
	}
	return &CQL{session: session}, nil
}

// Exec implements migration.Session.
func (c *CQL) Exec(ctx context.Context, statement string) error {
	return c.session.Query(statement).WithContext(ctx).Exec()
}

// Close implements migration.Session.
func (c *CQL) Close() error {
	c.session.Close()
	return nil
}
