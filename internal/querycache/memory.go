package querycache

import (
	"container/list"
	"context"
	"sync"
)

// MemoryTier is a bounded in-memory cache tier with least-recently-used
// eviction. It is safe for concurrent use.
type MemoryTier struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[string]*list.Element
}

type memoryItem struct {
	fingerprint string
	entry       Entry
}

// NewMemoryTier creates a memory tier holding at most capacity entries
func NewMemoryTier(capacity int) *MemoryTier {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryTier{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns an entry and marks it most recently used
func (t *MemoryTier) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	elem, ok := t.items[fingerprint]
	if !ok {
		return nil, nil
	}

	t.order.MoveToFront(elem)
	entry := elem.Value.(*memoryItem).entry
	return &entry, nil
}

// Set stores an entry, evicting the least recently used one when full
func (t *MemoryTier) Set(ctx context.Context, entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elem, ok := t.items[entry.Fingerprint]; ok {
		elem.Value.(*memoryItem).entry = entry
		t.order.MoveToFront(elem)
		return nil
	}

	elem := t.order.PushFront(&memoryItem{fingerprint: entry.Fingerprint, entry: entry})
	t.items[entry.Fingerprint] = elem

	if t.order.Len() > t.capacity {
		oldest := t.order.Back()
		if oldest != nil {
			t.order.Remove(oldest)
			delete(t.items, oldest.Value.(*memoryItem).fingerprint)
		}
	}

	return nil
}

// Delete removes an entry
func (t *MemoryTier) Delete(ctx context.Context, fingerprint string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elem, ok := t.items[fingerprint]; ok {
		t.order.Remove(elem)
		delete(t.items, fingerprint)
	}
	return nil
}

// Clear removes all entries
func (t *MemoryTier) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order.Init()
	t.items = make(map[string]*list.Element)
	return nil
}

// Len returns the number of held entries
func (t *MemoryTier) Len(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.order.Len(), nil
}
