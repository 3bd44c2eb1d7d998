// Package migration applies ordered, file-based schema-change scripts to a
// database session.
//
// Migrations live in a single directory as files named
// {timestamp}-{slug}.cql (e.g. "20230101000000-init.cql"). The timestamp is a
// fixed-width UTC instant, so the lexical order of file names is the order in
// which migrations were created. The package supports:
//
//   - Creating migration templates with freshly allocated identities
//   - Discovering and ordering every migration in the directory
//   - Splitting a migration body into statements on ';'
//   - Applying statements one at a time with fail-fast semantics
//
// There is no record of applied migrations: every run replays the whole set
// (or the single migration named by the caller) from the top, so migration
// statements should be idempotent (e.g. CREATE TABLE IF NOT EXISTS).
//
// Example usage:
//
//	source := migration.NewSource("migrations")
//	set, err := source.ListAll()
//	if err != nil {
//		return err
//	}
//	applier := migration.NewApplier(dialer, source, logger)
//	if err := applier.Run(ctx, set, migration.ConnectionDescriptor{Host: host}, sink); err != nil {
//		return err
//	}
package migration
