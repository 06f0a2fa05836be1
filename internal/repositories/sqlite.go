package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spinsync/spinsync/internal/models"
)

// SQLiteSessionRepository persists sessions in the sessions table.
type SQLiteSessionRepository struct {
	db *sql.DB
}

// NewSQLiteSessionRepository creates a store backed by the given database connection.
func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

// Get retrieves a session by ID, returning (nil, nil) when no row exists.
func (r *SQLiteSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	var (
		session   models.Session
		expiresAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.AccessToken,
		&session.RefreshToken,
		&expiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if expiresAt.Valid {
		session.ExpiresAt = expiresAt.Time
	}

	return &session, nil
}

// Put inserts or updates the session row, stamping updated_at.
func (r *SQLiteSessionRepository) Put(ctx context.Context, session *models.Session) error {
	stamp(session)

	query := `
		INSERT INTO sessions (id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.AccessToken,
		session.RefreshToken,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

// Delete removes the session row. Deleting an absent session is not an error.
func (r *SQLiteSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// PurgeExpired deletes sessions whose last write predates olderThan and
// returns how many rows were removed.
func (r *SQLiteSessionRepository) PurgeExpired(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}
