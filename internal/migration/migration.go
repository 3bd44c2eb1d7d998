package migration

import (
	"context"
	"sort"
)

// Migration is one versioned unit of schema change. Its content is absent
// until Load succeeds.
type Migration struct {
	Identity Identity

	content *string
}

// New returns a migration for id with no content loaded.
func New(id Identity) Migration {
	return Migration{Identity: id}
}

// Content returns the loaded script text and whether Load has run.
func (m *Migration) Content() (string, bool) {
	if m.content == nil {
		return "", false
	}
	return *m.content, true
}

// Loaded reports whether the migration's content is present.
func (m *Migration) Loaded() bool {
	return m.content != nil
}

// Load reads the migration's script text from loader.
func (m *Migration) Load(ctx context.Context, loader ContentLoader) error {
	content, err := loader.Load(ctx, m.Identity)
	if err != nil {
		return err
	}
	m.content = &content
	return nil
}

// String returns the canonical identifier of the migration.
func (m Migration) String() string {
	return m.Identity.Canonical()
}

// Set is an ordered sequence of migrations.
type Set []Migration

// Sort orders the set ascending by timestamp. The sort is stable: migrations
// sharing a timestamp keep their relative order.
func (s Set) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Identity.Timestamp < s[j].Identity.Timestamp
	})
}

// Identities returns the identities of the set in order.
func (s Set) Identities() []Identity {
	ids := make([]Identity, len(s))
	for i, m := range s {
		ids[i] = m.Identity
	}
	return ids
}

// ConnectionDescriptor names the database the run targets. The core never
// interprets Host; only the Dialer does.
type ConnectionDescriptor struct {
	Host string
}

// Session executes statements against a live database.
type Session interface {
	// Exec runs one statement and returns once the database has answered.
	Exec(ctx context.Context, statement string) error

	// Close releases the session.
	Close() error
}

// Dialer establishes sessions.
type Dialer interface {
	Dial(ctx context.Context, descriptor ConnectionDescriptor) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, descriptor ConnectionDescriptor) (Session, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, descriptor ConnectionDescriptor) (Session, error) {
	return f(ctx, descriptor)
}

// ContentLoader reads the script text behind an identity.
type ContentLoader interface {
	Load(ctx context.Context, id Identity) (string, error)
}

// ProgressSink receives one Advance per completed migration, in completion
// order, followed by Finish when the whole run succeeded.
type ProgressSink interface {
	Advance(label string)
	Finish()
}

// NopSink discards progress events.
type NopSink struct{}

// Advance implements ProgressSink.
func (NopSink) Advance(string) {}

// Finish implements ProgressSink.
func (NopSink) Finish() {}
