package querycache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache composes the bounded in-memory tier with the persistent tier and
// owns the promotion and expiry policy. It is a performance optimization,
// not a correctness guarantee: any persistent-tier failure degrades to
// memory-only operation and is never surfaced to the request path.
type Cache struct {
	memory     Tier
	persistent Tier // may be nil (memory-only deployments and tests)
	ttl        time.Duration
	logger     *logrus.Logger

	hits atomic.Int64
}

// Stats reports cache observability counters
type Stats struct {
	MemoryEntries     int           `json:"memory_entries"`
	PersistentEntries int           `json:"persistent_entries"`
	Hits              int64         `json:"hits"`
	TTL               time.Duration `json:"ttl"`
}

// New creates a two-tier cache. A nil persistent tier is allowed.
func New(memory Tier, persistent Tier, ttl time.Duration, logger *logrus.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Cache{
		memory:     memory,
		persistent: persistent,
		ttl:        ttl,
		logger:     logger,
	}
}

// Lookup checks the memory tier, then the persistent tier. A persistent hit
// is promoted into the memory tier. Stale entries are treated as absent and
// lazily purged.
func (c *Cache) Lookup(ctx context.Context, fingerprint string) (*Entry, bool) {
	now := time.Now()

	if entry, err := c.memory.Get(ctx, fingerprint); err == nil && entry != nil {
		if c.fresh(entry, now) {
			entry.Source = "memory"
			entry.LastAccessAt = now
			c.hits.Add(1)
			return entry, true
		}
		_ = c.memory.Delete(ctx, fingerprint)
	}

	if c.persistent == nil {
		return nil, false
	}

	entry, err := c.persistent.Get(ctx, fingerprint)
	if err != nil {
		c.logger.WithError(err).WithField("fingerprint", fingerprint).
			Warn("cache degraded: persistent tier lookup failed")
		return nil, false
	}
	if entry == nil {
		return nil, false
	}
	if !c.fresh(entry, now) {
		if err := c.persistent.Delete(ctx, fingerprint); err != nil {
			c.logger.WithError(err).Warn("cache degraded: stale entry purge failed")
		}
		return nil, false
	}

	// Promote into the memory tier before returning
	entry.LastAccessAt = now
	if err := c.memory.Set(ctx, *entry); err != nil {
		c.logger.WithError(err).Warn("cache promotion failed")
	}

	entry.Source = "persistent"
	c.hits.Add(1)
	return entry, true
}

// Store writes an entry to both tiers. The caller guarantees the query text
// passed validation; this component never checks that itself.
func (c *Cache) Store(ctx context.Context, entry Entry) {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.LastAccessAt.IsZero() {
		entry.LastAccessAt = now
	}
	entry.Source = ""

	if err := c.memory.Set(ctx, entry); err != nil {
		c.logger.WithError(err).Warn("cache degraded: memory tier store failed")
	}

	if c.persistent == nil {
		return
	}
	if err := c.persistent.Set(ctx, entry); err != nil {
		c.logger.WithError(err).WithField("fingerprint", entry.Fingerprint).
			Warn("cache degraded: persistent tier store failed")
	}
}

// Invalidate removes a single fingerprint from both tiers
func (c *Cache) Invalidate(ctx context.Context, fingerprint string) error {
	err := c.memory.Delete(ctx, fingerprint)
	if c.persistent != nil {
		if perr := c.persistent.Delete(ctx, fingerprint); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// InvalidateAll clears both tiers
func (c *Cache) InvalidateAll(ctx context.Context) error {
	err := c.memory.Clear(ctx)
	if c.persistent != nil {
		if perr := c.persistent.Clear(ctx); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// Stats returns counters for observability
func (c *Cache) Stats(ctx context.Context) Stats {
	stats := Stats{
		Hits: c.hits.Load(),
		TTL:  c.ttl,
	}

	if n, err := c.memory.Len(ctx); err == nil {
		stats.MemoryEntries = n
	}
	if c.persistent != nil {
		if n, err := c.persistent.Len(ctx); err == nil {
			stats.PersistentEntries = n
		}
	}

	return stats
}

func (c *Cache) fresh(entry *Entry, now time.Time) bool {
	return now.Sub(entry.CreatedAt) <= c.ttl
}
