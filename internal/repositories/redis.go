package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spinsync/spinsync/internal/models"
)

// sessionKeyPrefix namespaces session records in redis.
const sessionKeyPrefix = "session:"

// RedisSessionRepository stores sessions as JSON values under a "session:"
// key prefix. Records expire through redis TTLs, so this backend has no
// purger.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionRepository creates a redis-backed store. Records live for
// ttl after their last write; a non-positive ttl keeps them indefinitely.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	if ttl < 0 {
		ttl = 0
	}

	return &RedisSessionRepository{client: client, ttl: ttl}
}

func (r *RedisSessionRepository) key(id string) string {
	return sessionKeyPrefix + id
}

// Get retrieves and unmarshals a session, returning (nil, nil) when the key
// is absent or has expired.
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// Put marshals and stores the session, resetting its TTL.
func (r *RedisSessionRepository) Put(ctx context.Context, session *models.Session) error {
	stamp(session)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Delete removes the session key. Deleting an absent key is not an error.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
