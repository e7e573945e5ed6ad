package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/queryflow/queryflow-backend/internal/repository"
)

// CacheRepository implements repository.CacheRepository using PostgreSQL
type CacheRepository struct {
	db *sqlx.DB
}

// NewCacheRepository creates a new PostgreSQL cache repository
func NewCacheRepository(db *sqlx.DB) repository.CacheRepository {
	return &CacheRepository{db: db}
}

// Get retrieves a cache record by fingerprint and refreshes its access time
func (r *CacheRepository) Get(ctx context.Context, fingerprint string) (*repository.CacheRecord, error) {
	var record repository.CacheRecord
	query := `
		SELECT fingerprint, query_text, result, created_at, last_access_at
		FROM query_cache
		WHERE fingerprint = $1
	`

	err := r.db.GetContext(ctx, &record, query, fingerprint)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	// Best effort; a failed access-time refresh does not fail the lookup
	_, _ = r.db.ExecContext(ctx,
		"UPDATE query_cache SET last_access_at = $2 WHERE fingerprint = $1",
		fingerprint, time.Now())

	return &record, nil
}

// Set writes a cache record, overwriting any existing entry (last-write-wins)
func (r *CacheRepository) Set(ctx context.Context, record repository.CacheRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.LastAccessAt.IsZero() {
		record.LastAccessAt = record.CreatedAt
	}

	query := `
		INSERT INTO query_cache (fingerprint, query_text, result, created_at, last_access_at)
		VALUES (:fingerprint, :query_text, :result, :created_at, :last_access_at)
		ON CONFLICT (fingerprint) DO UPDATE SET
			query_text = EXCLUDED.query_text,
			result = EXCLUDED.result,
			created_at = EXCLUDED.created_at,
			last_access_at = EXCLUDED.last_access_at
	`

	_, err := r.db.NamedExecContext(ctx, query, record)
	return err
}

// Delete removes a single cache record
func (r *CacheRepository) Delete(ctx context.Context, fingerprint string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM query_cache WHERE fingerprint = $1", fingerprint)
	return err
}

// DeleteAll removes every cache record
func (r *CacheRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM query_cache")
	return err
}

// DeleteOlderThan purges records created before the cutoff
func (r *CacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM query_cache WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the number of persisted cache records
func (r *CacheRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM query_cache")
	return count, err
}
