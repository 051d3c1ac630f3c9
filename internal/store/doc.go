// Package store provides SQLite-backed history of diff and merge runs.
//
// Every recorded run keeps its verdict, its content fingerprint and the
// full report encoded with msgpack, so a past report can be reproduced
// without the dumps it was computed from.
//
// # Idempotency
//
// A run is identified by (kind, library, arch, fingerprint). Recording the
// same report twice is a no-op: UNIQUE constraint plus
// INSERT ... ON CONFLICT DO NOTHING.
//
// # Ordering
//
// Listings are ordered by seq, the insertion order, never by wall time.
// The clock and the run id generator are injectable for tests.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
