package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/scm/internal/logging"
)

// State is the position of an Applier in its run.
type State int

// Applier states. Succeeded and Failed are terminal.
const (
	StateIdle State = iota
	StateConnecting
	StateRunning
	StateSucceeded
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Applier executes a migration set against one session, statement by
// statement, and stops at the first failure. Nothing is rolled back.
type Applier struct {
	dialer Dialer
	loader ContentLoader
	logger *slog.Logger
	newID  func() string

	mu    sync.Mutex
	state State
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithRunIDGenerator overrides how run identifiers are produced.
func WithRunIDGenerator(next func() string) ApplierOption {
	return func(a *Applier) {
		if next != nil {
			a.newID = next
		}
	}
}

// NewApplier returns an idle Applier.
func NewApplier(dialer Dialer, loader ContentLoader, logger *slog.Logger, opts ...ApplierOption) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Applier{
		dialer: dialer,
		loader: loader,
		logger: logger,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current state of the applier.
func (a *Applier) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Applier) transition(logger *slog.Logger, next State) {
	a.mu.Lock()
	prev := a.state
	a.state = next
	a.mu.Unlock()
	logger.Debug("applier state changed", "from", prev.String(), "to", next.String())
}

// Run applies every migration of set, in order, against a session dialled
// from descriptor. One Advance is sent to sink per completed migration and
// Finish once all of them completed. The first error ends the run; the
// statements that already ran stay applied.
//
// An Applier runs once. Calling Run again after a terminal state returns an
// error without touching the database.
func (a *Applier) Run(ctx context.Context, set Set, descriptor ConnectionDescriptor, sink ProgressSink) (err error) {
	if sink == nil {
		sink = NopSink{}
	}

	if current := a.State(); current != StateIdle {
		return fmt.Errorf("applier already %s", current)
	}

	base := logging.FromContext(ctx)
	if base == nil {
		base = a.logger
	}
	logger := base.With("component", "applier", "run_id", a.newID())
	startTime := time.Now()

	a.transition(logger, StateConnecting)
	defer func() {
		if err != nil {
			a.transition(logger, StateFailed)
			logger.Error("migration run failed",
				"error", err,
				"error_kind", ErrorKind(err),
				"elapsed", time.Since(startTime))
		}
	}()

	session, dialErr := a.dialer.Dial(ctx, descriptor)
	if dialErr != nil {
		return &ConnectionError{Host: descriptor.Host, Err: dialErr}
	}
	if session == nil {
		return &ConnectionError{Host: descriptor.Host, Err: errors.New("dialer returned no session")}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("failed to close session", "error", cerr)
		}
	}()

	a.transition(logger, StateRunning)
	logger.Info("applying migrations", "count", len(set))

	total := len(set)
	for i := range set {
		m := &set[i]
		if err := a.apply(ctx, logger, session, m, i+1, total); err != nil {
			return err
		}
		sink.Advance(m.Identity.Canonical())
	}

	a.transition(logger, StateSucceeded)
	sink.Finish()
	logger.Info("all migrations applied", "count", total, "elapsed", time.Since(startTime))
	return nil
}

// apply loads, splits and executes one migration.
func (a *Applier) apply(ctx context.Context, logger *slog.Logger, session Session, m *Migration, position, total int) error {
	id := m.Identity.Canonical()
	migrationStart := time.Now()

	if err := m.Load(ctx, a.loader); err != nil {
		return fmt.Errorf("migration %s: %w", id, err)
	}
	content, _ := m.Content()
	statements := Split(content)

	logger.Debug("executing migration",
		"migration", id,
		"position", position,
		"total", total,
		"statements", len(statements))

	for _, statement := range statements {
		if err := session.Exec(ctx, string(statement)); err != nil {
			return &StatementExecutionError{
				Migration: id,
				Position:  position,
				Total:     total,
				Statement: string(statement),
				Err:       err,
			}
		}
	}

	logger.Info("migration applied",
		"migration", id,
		"position", position,
		"total", total,
		"elapsed", time.Since(migrationStart))
	return nil
}
