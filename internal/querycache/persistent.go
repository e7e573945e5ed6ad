package querycache

import (
	"context"

	"github.com/queryflow/queryflow-backend/internal/repository"
)

// PersistentTier adapts a repository.CacheRepository to the Tier interface
type PersistentTier struct {
	repo repository.CacheRepository
}

// NewPersistentTier creates a persistent tier backed by the given repository
func NewPersistentTier(repo repository.CacheRepository) *PersistentTier {
	return &PersistentTier{repo: repo}
}

func (t *PersistentTier) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	record, err := t.repo.Get(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	return &Entry{
		Fingerprint:  record.Fingerprint,
		QueryText:    record.QueryText,
		Result:       record.Result,
		CreatedAt:    record.CreatedAt,
		LastAccessAt: record.LastAccessAt,
	}, nil
}

func (t *PersistentTier) Set(ctx context.Context, entry Entry) error {
	return t.repo.Set(ctx, repository.CacheRecord{
		Fingerprint:  entry.Fingerprint,
		QueryText:    entry.QueryText,
		Result:       entry.Result,
		CreatedAt:    entry.CreatedAt,
		LastAccessAt: entry.LastAccessAt,
	})
}

func (t *PersistentTier) Delete(ctx context.Context, fingerprint string) error {
	return t.repo.Delete(ctx, fingerprint)
}

func (t *PersistentTier) Clear(ctx context.Context) error {
	return t.repo.DeleteAll(ctx)
}

func (t *PersistentTier) Len(ctx context.Context) (int, error) {
	return t.repo.Count(ctx)
}
