// Package store provides SQLite-backed storage for the projected registry.
//
// The store holds three kinds of data:
//   - Entities: accounts, domains, registrations (upserted by key)
//   - Audit records: name_registered, name_renewed, name_transferred
//     (append-only, keyed by event id)
//   - Journal and checkpoint: one row per applied event plus the position
//     of the last one
//
// # Unit of work
//
// Apply claims the event id in the journal, checks the position against
// the checkpoint, runs the caller's writes and advances the checkpoint in
// a single transaction. A duplicate event id or a stale position aborts
// before any write. Any error rolls back the whole event.
//
// # Deterministic reads
//
// Snapshot orders every table by id COLLATE BINARY and Journal orders by
// seq, so two stores fed the same events compare equal.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
