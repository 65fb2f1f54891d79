// Package store provides SQLite-backed durable storage for play journals.
//
// The store is append-only. Each row is a journal.Record keyed by its
// content-addressed ID, with UNIQUE(run_token, seq) so a run cannot hold two
// different records at the same position.
//
// Ordering is by seq, never by timestamp, so reading a run back yields
// exactly the order the engine wrote it in.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
