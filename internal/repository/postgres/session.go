package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/queryflow/queryflow-backend/internal/repository"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert creates a session or refreshes its updated_at timestamp
func (r *SessionRepository) Upsert(ctx context.Context, session *repository.Session) error {
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	query := `
		INSERT INTO sessions (id, subject, category, metric, created_at, updated_at)
		VALUES (:id, :subject, :category, :metric, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.NamedExecContext(ctx, query, session)
	return err
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*repository.Session, error) {
	var session repository.Session
	query := `
		SELECT id, subject, category, metric, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

// List retrieves all sessions ordered by recency
func (r *SessionRepository) List(ctx context.Context) ([]*repository.Session, error) {
	var sessions []*repository.Session
	query := `
		SELECT id, subject, category, metric, created_at, updated_at
		FROM sessions
		ORDER BY updated_at DESC
	`

	err := r.db.SelectContext(ctx, &sessions, query)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// Touch updates a session's active entity context and recency timestamp.
// Empty values leave the stored entity unchanged.
func (r *SessionRepository) Touch(ctx context.Context, id string, subject, category, metric string) error {
	query := `
		UPDATE sessions
		SET subject = COALESCE(NULLIF($2, ''), subject),
		    category = COALESCE(NULLIF($3, ''), category),
		    metric = COALESCE(NULLIF($4, ''), metric),
		    updated_at = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, subject, category, metric, time.Now())
	return err
}

// Delete deletes a session and, via cascade, its turns
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := "DELETE FROM sessions WHERE id = $1"
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
