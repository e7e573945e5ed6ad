package retriever

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
)

// Snippet is one ranked piece of business context returned by the external
// search capability. Ephemeral; snippets are never persisted.
type Snippet struct {
	SourceID string  `json:"source_id"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Searcher is the external context-lookup capability
type Searcher interface {
	Search(ctx context.Context, text string, k int) ([]Snippet, error)
}

// Adapter filters and bounds results from an external Searcher. Context
// enrichment is an enhancement, not a hard dependency: any failure of the
// underlying capability yields an empty result, never an error.
type Adapter struct {
	searcher     Searcher
	maxResults   int
	minRelevance float64
	logger       *logrus.Logger
}

// NewAdapter creates a context retriever adapter. A nil searcher is allowed
// and behaves as an always-empty capability.
func NewAdapter(searcher Searcher, maxResults int, minRelevance float64, logger *logrus.Logger) *Adapter {
	if maxResults <= 0 {
		maxResults = 10
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{
		searcher:     searcher,
		maxResults:   maxResults,
		minRelevance: minRelevance,
		logger:       logger,
	}
}

// Retrieve returns up to maxResults snippets at or above the relevance
// threshold, in descending relevance order. On any failure it returns an
// empty slice; the pipeline proceeds with schema metadata alone.
func (a *Adapter) Retrieve(ctx context.Context, resolvedUtterance string) []Snippet {
	if a.searcher == nil {
		return nil
	}

	results, err := a.searcher.Search(ctx, resolvedUtterance, a.maxResults)
	if err != nil {
		a.logger.WithError(err).Warn("context retrieval degraded: proceeding without business context")
		return nil
	}

	filtered := results[:0:0]
	for _, s := range results {
		if s.Score >= a.minRelevance {
			filtered = append(filtered, s)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})

	if len(filtered) > a.maxResults {
		filtered = filtered[:a.maxResults]
	}

	return filtered
}
