// package repositories provides session persistence implementations.
//
// Each store implements [SessionRepository]; stores without native expiry
// also implement [Purger] so stale rows can be reaped from the CLI.
package repositories

import (
	"context"
	"time"

	"github.com/spinsync/spinsync/internal/models"
)

// SessionRepository is the storage contract the token manager depends on.
//
// Get returns (nil, nil) when no session exists for the given ID so callers
// can tell absence apart from storage failure. Put is an upsert keyed on
// [models.Session.ID]. Implementations must be safe for concurrent use.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Put(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

// Purger is implemented by stores that can bulk-remove stale sessions.
// Backends with native key expiry (redis) do not implement it.
type Purger interface {
	PurgeExpired(ctx context.Context, olderThan time.Time) (int, error)
}

// stamp sets bookkeeping timestamps before a write.
func stamp(session *models.Session) {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
}
