package testfixtures

import (
	"context"
	"errors"
	"sync"

	"github.com/example/scm/internal/migration"
)

// ErrStatementRejected is the database error returned for statements a
// RecordingDialer was told to fail.
var ErrStatementRejected = errors.New("statement rejected")

// RecordingDialer hands out sessions that record every executed statement
// instead of talking to a database.
type RecordingDialer struct {
	mu          sync.Mutex
	dialErr     error
	failOn      map[string]error
	executed    []string
	descriptors []migration.ConnectionDescriptor
	closed      int
}

// NewRecordingDialer returns a dialer whose sessions accept every statement.
func NewRecordingDialer() *RecordingDialer {
	return &RecordingDialer{failOn: make(map[string]error)}
}

// FailDial makes every Dial return err.
func (d *RecordingDialer) FailDial(err error) *RecordingDialer {
	d.mu.Lock()
	d.dialErr = err
	d.mu.Unlock()
	return d
}

// FailOn makes Exec of statement return ErrStatementRejected.
func (d *RecordingDialer) FailOn(statement string) *RecordingDialer {
	d.mu.Lock()
	d.failOn[statement] = ErrStatementRejected
	d.mu.Unlock()
	return d
}

// Dial implements migration.Dialer.
func (d *RecordingDialer) Dial(_ context.Context, descriptor migration.ConnectionDescriptor) (migration.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.descriptors = append(d.descriptors, descriptor)
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return &recordingSession{dialer: d}, nil
}

// Executed returns the statements executed so far, in order.
func (d *RecordingDialer) Executed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.executed...)
}

// Descriptors returns the descriptors passed to Dial.
func (d *RecordingDialer) Descriptors() []migration.ConnectionDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]migration.ConnectionDescriptor(nil), d.descriptors...)
}

// Closed returns how many sessions were closed.
func (d *RecordingDialer) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type recordingSession struct {
	dialer *RecordingDialer
}

func (s *recordingSession) Exec(_ context.Context, statement string) error {
	d := s.dialer
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed = append(d.executed, statement)
	return d.failOn[statement]
}

func (s *recordingSession) Close() error {
	s.dialer.mu.Lock()
	s.dialer.closed++
	s.dialer.mu.Unlock()
	return nil
}

// RecordingSink is a migration.ProgressSink that records its events.
type RecordingSink struct {
	mu       sync.Mutex
	advanced []string
	finished int
}

// Advance implements migration.ProgressSink.
func (s *RecordingSink) Advance(label string) {
	s.mu.Lock()
	s.advanced = append(s.advanced, label)
	s.mu.Unlock()
}

// Finish implements migration.ProgressSink.
func (s *RecordingSink) Finish() {
	s.mu.Lock()
	s.finished++
	s.mu.Unlock()
}

// Advanced returns the labels passed to Advance, in order.
func (s *RecordingSink) Advanced() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.advanced...)
}

// Finished returns how many times Finish was called.
func (s *RecordingSink) Finished() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}
