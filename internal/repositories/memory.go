package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/spinsync/spinsync/internal/models"
)

// MemorySessionRepository keeps sessions in a process-local map.
//
// State is lost on restart. Intended for tests and single-process
// development where durability does not matter.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewMemorySessionRepository creates an empty in-memory store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]models.Session)}
}

// Get returns a copy of the stored session, or (nil, nil) when absent.
func (r *MemorySessionRepository) Get(_ context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}

	return &session, nil
}

// Put stores a copy of the session keyed by its ID.
func (r *MemorySessionRepository) Put(_ context.Context, session *models.Session) error {
	stamp(session)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = *session
	return nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// PurgeExpired drops sessions whose last write predates olderThan and
// returns how many were removed.
func (r *MemorySessionRepository) PurgeExpired(_ context.Context, olderThan time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for id, session := range r.sessions {
		if session.UpdatedAt.Before(olderThan) {
			delete(r.sessions, id)
			purged++
		}
	}

	return purged, nil
}
