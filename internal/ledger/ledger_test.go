package ledger

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/queryflow/queryflow-backend/internal/repository"
)

// in-memory repositories for tests

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*repository.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*repository.Session)}
}

func (r *memSessionRepo) Upsert(_ context.Context, s *repository.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *memSessionRepo) Get(_ context.Context, id string) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *memSessionRepo) List(_ context.Context) ([]*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Session
	for _, s := range r.sessions {
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memSessionRepo) Touch(_ context.Context, id string, subject, category, metric string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	if subject != "" {
		s.Subject = subject
	}
	if category != "" {
		s.Category = category
	}
	if metric != "" {
		s.Metric = metric
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type memTurnRepo struct {
	mu    sync.Mutex
	turns map[string][]repository.Turn
}

func newMemTurnRepo() *memTurnRepo {
	return &memTurnRepo{turns: make(map[string][]repository.Turn)}
}

func (r *memTurnRepo) Create(_ context.Context, turn repository.Turn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	r.turns[turn.SessionID] = append(r.turns[turn.SessionID], turn)
	return turn.ID, nil
}

func (r *memTurnRepo) ListBySession(_ context.Context, sessionID string) ([]repository.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]repository.Turn(nil), r.turns[sessionID]...), nil
}

func (r *memTurnRepo) CountBySession(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.turns[sessionID]), nil
}

func newTestLedger() (*Ledger, *memSessionRepo, *memTurnRepo) {
	sessions := newMemSessionRepo()
	turns := newMemTurnRepo()
	return New(sessions, turns, 24*time.Hour, nil), sessions, turns
}

func TestStartOrResume_Idempotent(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	first, err := l.StartOrResume(ctx, "s1")
	require.NoError(t, err)
	second, err := l.StartOrResume(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
}

func TestStartOrResume_EvictsIdleSession(t *testing.T) {
	ctx := context.Background()
	sessions := newMemSessionRepo()
	turns := newMemTurnRepo()
	l := New(sessions, turns, time.Minute, nil)

	stale := &repository.Session{ID: "s1", Subject: "products"}
	require.NoError(t, sessions.Upsert(ctx, stale))
	sessions.mu.Lock()
	sessions.sessions["s1"].UpdatedAt = time.Now().Add(-time.Hour)
	sessions.mu.Unlock()

	session, err := l.StartOrResume(ctx, "s1")
	require.NoError(t, err)

	// Fresh session: the stale entity context is gone
	assert.Empty(t, session.Subject)
}

func TestAppend_UpdatesActiveEntityContext(t *testing.T) {
	ctx := context.Background()
	l, sessions, _ := newTestLedger()

	_, err := l.StartOrResume(ctx, "s1")
	require.NoError(t, err)

	err = l.Append(ctx, repository.Turn{
		SessionID:         "s1",
		Utterance:         "show products in Electronics category",
		ResolvedUtterance: "show products in Electronics category",
		QueryText:         "SELECT * FROM shop.products WHERE category = 'Electronics' LIMIT 100",
		Valid:             true,
	})
	require.NoError(t, err)

	session, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "products", session.Subject)
	assert.Equal(t, "Electronics", session.Category)
}

func TestResolve_FollowUpRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, sessions, _ := newTestLedger()

	_, err := l.StartOrResume(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, l.Append(ctx, repository.Turn{
		SessionID:         "s1",
		Utterance:         "show products in Electronics category",
		ResolvedUtterance: "show products in Electronics category",
		QueryText:         "SELECT name FROM products WHERE category = 'Electronics' LIMIT 100",
		Valid:             true,
	}))

	session, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)

	resolved := l.Resolve(ctx, session, "what about Furniture?")
	assert.Equal(t, "show products in Furniture category", resolved)
}

func TestResolve_NoHistoryPassesThrough(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	session, err := l.StartOrResume(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "what about Furniture?", l.Resolve(ctx, session, "what about Furniture?"))
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	_, err := l.StartOrResume(ctx, "s1")
	require.NoError(t, err)

	summary, err := l.Summarize(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Turns)

	require.NoError(t, l.Append(ctx, repository.Turn{
		SessionID:         "s1",
		ResolvedUtterance: "show products in Electronics category",
		Valid:             true,
	}))
	require.NoError(t, l.Append(ctx, repository.Turn{
		SessionID:         "s1",
		ResolvedUtterance: "count orders by status",
		Valid:             true,
	}))

	summary, err = l.Summarize(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Turns)
	assert.Equal(t, 2, summary.DistinctSubjects)
	assert.NotNil(t, summary.StartedAt)
	assert.NotNil(t, summary.LastActivity)
}

func TestRecentTurns_Window(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger()

	_, err := l.StartOrResume(ctx, "s1")
	require.NoError(t, err)

	for _, u := range []string{"first", "second", "third", "fourth"} {
		require.NoError(t, l.Append(ctx, repository.Turn{SessionID: "s1", Utterance: u, ResolvedUtterance: u}))
	}

	turns, err := l.RecentTurns(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "second", turns[0].Utterance)
	assert.Equal(t, "fourth", turns[2].Utterance)
}

func TestConcurrentAppendsToDifferentSessions(t *testing.T) {
	ctx := context.Background()
	l, _, turns := newTestLedger()

	_, err := l.StartOrResume(ctx, "a")
	require.NoError(t, err)
	_, err = l.StartOrResume(ctx, "b")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sessionID := "a"
		if i%2 == 0 {
			sessionID = "b"
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = l.Append(ctx, repository.Turn{SessionID: id, ResolvedUtterance: "show orders"})
		}(sessionID)
	}
	wg.Wait()

	countA, err := turns.CountBySession(ctx, "a")
	require.NoError(t, err)
	countB, err := turns.CountBySession(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 10, countA)
	assert.Equal(t, 10, countB)
}
