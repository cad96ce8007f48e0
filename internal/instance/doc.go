// Package instance persists orchestration instances in SQLite and exposes the
// append-only mutations the engine drives them through.
//
// The Store is the single source of truth for instance semantics: status
// transitions are monotonic (pending -> running -> completed|failed), step
// records are append-only with at most one record per stage, and every
// mutation runs in a transaction that re-checks the lifecycle so concurrent
// writers cannot interleave into an inconsistent state. Terminal instances
// reject all further mutation.
//
// The database holds the full replay history; schema changes bump the version
// in schema.go and require clearing the database.
package instance
