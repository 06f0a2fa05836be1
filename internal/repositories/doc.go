// Package repositories implements session persistence for the SpinSync backend.
//
// Every store satisfies [SessionRepository]: get by ID with (nil, nil) on a
// miss, upsert, and delete. Stores that keep rows around after expiry also
// satisfy [Purger] so the sessions purge command can reap them.
//
// Key Implementations:
//   - [MemorySessionRepository] : process-local map for tests and development
//   - [SQLiteSessionRepository] : durable single-node storage in the sessions table
//   - [RedisSessionRepository] : JSON values under a "session:" prefix with TTL expiry
//
// Token refresh uses a read-modify-write cycle with no cross-store locking,
// so two concurrent refreshes of one session resolve last-write-wins. Both
// writes carry valid tokens, which makes the race benign.
package repositories
