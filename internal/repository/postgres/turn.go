package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/queryflow/queryflow-backend/internal/repository"
)

// TurnRepository implements repository.TurnRepository using PostgreSQL
type TurnRepository struct {
	db *sqlx.DB
}

// NewTurnRepository creates a new PostgreSQL turn repository
func NewTurnRepository(db *sqlx.DB) repository.TurnRepository {
	return &TurnRepository{db: db}
}

// Create appends a turn. Turns are never updated after creation.
func (r *TurnRepository) Create(ctx context.Context, turn repository.Turn) (string, error) {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO turns (id, session_id, utterance, resolved_utterance, query_text,
		                   valid, blocking_reason, execution_summary, created_at)
		VALUES (:id, :session_id, :utterance, :resolved_utterance, :query_text,
		        :valid, :blocking_reason, :execution_summary, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, turn)
	if err != nil {
		return "", err
	}

	return turn.ID, nil
}

// ListBySession retrieves all turns for a session in append order
func (r *TurnRepository) ListBySession(ctx context.Context, sessionID string) ([]repository.Turn, error) {
	var turns []repository.Turn
	query := `
		SELECT id, session_id, utterance, resolved_utterance, query_text,
		       valid, blocking_reason, execution_summary, created_at
		FROM turns
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	err := r.db.SelectContext(ctx, &turns, query, sessionID)
	if err != nil {
		return nil, err
	}

	return turns, nil
}

// CountBySession returns the number of turns in a session
func (r *TurnRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM turns WHERE session_id = $1", sessionID)
	return count, err
}
