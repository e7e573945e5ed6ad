package querycache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Deterministic(t *testing.T) {
	opts := Options{Execute: true, Dialect: "postgres"}

	a := Fingerprint("Show me top 5 customers by revenue", opts)
	b := Fingerprint("Show me top 5 customers by revenue", opts)
	assert.Equal(t, a, b)

	// Whitespace and case do not change the digest
	c := Fingerprint("  show me top 5   customers by revenue ", opts)
	assert.Equal(t, a, c)
}

func TestFingerprint_OptionSensitivity(t *testing.T) {
	utterance := "show products in Furniture category"

	base := Fingerprint(utterance, Options{Execute: false, Dialect: "postgres"})
	withExec := Fingerprint(utterance, Options{Execute: true, Dialect: "postgres"})
	otherDialect := Fingerprint(utterance, Options{Execute: false, Dialect: "athena"})

	assert.NotEqual(t, base, withExec)
	assert.NotEqual(t, base, otherDialect)
}

func TestMemoryTier_LRUEviction(t *testing.T) {
	ctx := context.Background()
	tier := NewMemoryTier(2)

	require.NoError(t, tier.Set(ctx, Entry{Fingerprint: "a", QueryText: "SELECT 1"}))
	require.NoError(t, tier.Set(ctx, Entry{Fingerprint: "b", QueryText: "SELECT 2"}))

	// Touch "a" so "b" becomes the eviction candidate
	_, err := tier.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, tier.Set(ctx, Entry{Fingerprint: "c", QueryText: "SELECT 3"}))

	entry, err := tier.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = tier.Get(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestCache_LookupPromotesFromPersistent(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryTier(8)
	persistent := NewMemoryTier(8)
	cache := New(memory, persistent, time.Hour, nil)

	require.NoError(t, persistent.Set(ctx, Entry{
		Fingerprint: "fp1",
		QueryText:   "SELECT id FROM customers LIMIT 5",
		CreatedAt:   time.Now(),
	}))

	entry, ok := cache.Lookup(ctx, "fp1")
	require.True(t, ok)
	assert.Equal(t, "persistent", entry.Source)

	// Second lookup must come from the memory tier
	entry, ok = cache.Lookup(ctx, "fp1")
	require.True(t, ok)
	assert.Equal(t, "memory", entry.Source)
}

func TestCache_StaleEntryTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryTier(8)
	persistent := NewMemoryTier(8)
	cache := New(memory, persistent, time.Minute, nil)

	stale := Entry{
		Fingerprint: "fp-old",
		QueryText:   "SELECT 1",
		CreatedAt:   time.Now().Add(-2 * time.Minute),
	}
	require.NoError(t, memory.Set(ctx, stale))
	require.NoError(t, persistent.Set(ctx, stale))

	_, ok := cache.Lookup(ctx, "fp-old")
	assert.False(t, ok)

	// Lazy purge removed the stale record from the persistent tier
	entry, err := persistent.Get(ctx, "fp-old")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

// failingTier simulates an unreachable persistent store
type failingTier struct{}

func (failingTier) Get(context.Context, string) (*Entry, error) {
	return nil, errors.New("connection refused")
}
func (failingTier) Set(context.Context, Entry) error    { return errors.New("connection refused") }
func (failingTier) Delete(context.Context, string) error { return errors.New("connection refused") }
func (failingTier) Clear(context.Context) error          { return errors.New("connection refused") }
func (failingTier) Len(context.Context) (int, error)     { return 0, errors.New("connection refused") }

func TestCache_DegradesToMemoryOnPersistentFailure(t *testing.T) {
	ctx := context.Background()
	cache := New(NewMemoryTier(8), failingTier{}, time.Hour, nil)

	// Store never fails the caller even when the persistent tier is down
	cache.Store(ctx, Entry{Fingerprint: "fp1", QueryText: "SELECT 1"})

	entry, ok := cache.Lookup(ctx, "fp1")
	require.True(t, ok)
	assert.Equal(t, "memory", entry.Source)

	// A miss against the failing tier is just a miss
	_, ok = cache.Lookup(ctx, "unknown")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryTier(8)
	persistent := NewMemoryTier(8)
	cache := New(memory, persistent, time.Hour, nil)

	cache.Store(ctx, Entry{Fingerprint: "fp1", QueryText: "SELECT 1"})
	cache.Store(ctx, Entry{Fingerprint: "fp2", QueryText: "SELECT 2"})

	require.NoError(t, cache.Invalidate(ctx, "fp1"))
	_, ok := cache.Lookup(ctx, "fp1")
	assert.False(t, ok)
	_, ok = cache.Lookup(ctx, "fp2")
	assert.True(t, ok)

	require.NoError(t, cache.InvalidateAll(ctx))
	_, ok = cache.Lookup(ctx, "fp2")
	assert.False(t, ok)
}

func TestCache_Stats(t *testing.T) {
	ctx := context.Background()
	cache := New(NewMemoryTier(8), NewMemoryTier(8), time.Hour, nil)

	cache.Store(ctx, Entry{Fingerprint: "fp1", QueryText: "SELECT 1"})
	_, ok := cache.Lookup(ctx, "fp1")
	require.True(t, ok)

	stats := cache.Stats(ctx)
	assert.Equal(t, 1, stats.MemoryEntries)
	assert.Equal(t, 1, stats.PersistentEntries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, time.Hour, stats.TTL)
}
