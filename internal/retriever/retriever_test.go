package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubSearcher struct {
	results []Snippet
	err     error
	calls   int
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]Snippet, error) {
	s.calls++
	return s.results, s.err
}

func TestRetrieve_FiltersAndOrders(t *testing.T) {
	searcher := &stubSearcher{results: []Snippet{
		{SourceID: "a", Text: "low", Score: 0.3},
		{SourceID: "b", Text: "high", Score: 0.9},
		{SourceID: "c", Text: "mid", Score: 0.75},
	}}
	adapter := NewAdapter(searcher, 10, 0.7, nil)

	snippets := adapter.Retrieve(context.Background(), "revenue by region")

	assert.Len(t, snippets, 2)
	assert.Equal(t, "b", snippets[0].SourceID)
	assert.Equal(t, "c", snippets[1].SourceID)
}

func TestRetrieve_TruncatesToMaxResults(t *testing.T) {
	searcher := &stubSearcher{results: []Snippet{
		{SourceID: "a", Score: 0.9},
		{SourceID: "b", Score: 0.8},
		{SourceID: "c", Score: 0.85},
	}}
	adapter := NewAdapter(searcher, 2, 0.5, nil)

	snippets := adapter.Retrieve(context.Background(), "q")

	assert.Len(t, snippets, 2)
	assert.Equal(t, "a", snippets[0].SourceID)
	assert.Equal(t, "c", snippets[1].SourceID)
}

func TestRetrieve_DegradesToEmptyOnFailure(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("timeout")}
	adapter := NewAdapter(searcher, 10, 0.7, nil)

	snippets := adapter.Retrieve(context.Background(), "q")

	assert.Empty(t, snippets)
	assert.Equal(t, 1, searcher.calls)
}

func TestRetrieve_NilSearcher(t *testing.T) {
	adapter := NewAdapter(nil, 10, 0.7, nil)
	assert.Empty(t, adapter.Retrieve(context.Background(), "q"))
}
