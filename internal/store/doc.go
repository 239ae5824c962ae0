// Package store records generated runs in SQLite so they can be replayed
// byte for byte later.
//
// The store is an append-only log with two tables:
//   - runs: one row per generation run, with the config that produced it
//   - messages: every encoded line of the run, keyed by (run_id, position)
//
// # Ordering
//
// Messages are read back ORDER BY position ASC. Position is the 1-based
// index of the line in the emitted stream, never a timestamp.
//
// # Idempotency
//
// A run id is recorded once. WriteRun reports ErrRunExists for a second
// run under the same id instead of mixing two runs' lines. Message writes
// use ON CONFLICT DO NOTHING, so a retried position is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
