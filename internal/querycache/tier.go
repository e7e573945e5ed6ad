package querycache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one cached outcome. Result is the raw execution result payload,
// empty when the entry caches generated text alone.
type Entry struct {
	Fingerprint  string          `json:"fingerprint"`
	QueryText    string          `json:"query_text"`
	Result       json.RawMessage `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	LastAccessAt time.Time       `json:"last_access_at"`
	Source       string          `json:"source,omitempty"` // "memory" | "persistent"
}

// Tier is one backing store of the two-tier cache. Both the bounded
// in-memory store and the persistent store implement it, so the composition
// and promotion policy live in Cache rather than in either backend.
type Tier interface {
	// Get returns the entry for a fingerprint, or nil on a miss
	Get(ctx context.Context, fingerprint string) (*Entry, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, fingerprint string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}
