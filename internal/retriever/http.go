package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSearcher calls an external context-search service over HTTP. The
// service contract is a POST of {"text": ..., "k": ...} answered by
// {"results": [{"id", "text", "score"}]}.
type HTTPSearcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSearcher creates a searcher against the given base URL
func NewHTTPSearcher(baseURL string, timeout time.Duration) *HTTPSearcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSearcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	Text string `json:"text"`
	K    int    `json:"k"`
}

type searchResponse struct {
	Results []struct {
		ID    string  `json:"id"`
		Text  string  `json:"text"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// Search implements Searcher
func (s *HTTPSearcher) Search(ctx context.Context, text string, k int) ([]Snippet, error) {
	body, err := json.Marshal(searchRequest{Text: text, K: k})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("context search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	snippets := make([]Snippet, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		snippets = append(snippets, Snippet{SourceID: r.ID, Text: r.Text, Score: r.Score})
	}

	return snippets, nil
}
