package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/queryflow/queryflow-backend/internal/api/models"
	"github.com/queryflow/queryflow-backend/internal/retriever"
)

// Analyzer classifies an utterance before any generation happens. It is a
// cheap heuristic pass used by the analyze endpoint so clients can preview
// what kind of query a question will produce.
type Analyzer struct {
	retriever *retriever.Adapter
}

func NewAnalyzer(ret *retriever.Adapter) *Analyzer {
	return &Analyzer{retriever: ret}
}

var (
	aggregationCueRe = regexp.MustCompile(`(?i)\b(how many|count|total|sum|average|avg|mean|max|maximum|min|minimum|number of)\b`)
	comparisonCueRe  = regexp.MustCompile(`(?i)\b(compare|versus|vs\.?|more than|less than|higher|lower|greater|difference between)\b`)
	temporalCueRe    = regexp.MustCompile(`(?i)\b(trend|over time|per (day|week|month|quarter|year)|last (day|week|month|quarter|year)|monthly|weekly|daily|yearly|since|before|after)\b`)
	relationCueRe    = regexp.MustCompile(`(?i)\b(customers?|orders?|products?|sales?|invoices?|payments?|users?|items?|categories|category|inventory|suppliers?|employees?)\b`)
)

// AnalyzeIntent classifies a raw utterance without resolving follow-ups,
// touching the cache, or invoking the generator.
func (a *Analyzer) AnalyzeIntent(utterance string) models.IntentAnalysis {
	analysis := models.IntentAnalysis{
		Utterance:  utterance,
		IntentType: "retrieval",
		Complexity: "simple",
	}

	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		analysis.IntentType = "unknown"
		analysis.Recommendations = append(analysis.Recommendations, "provide a question describing the data you want")
		return analysis
	}

	switch {
	case temporalCueRe.MatchString(trimmed):
		analysis.IntentType = "temporal_analysis"
		analysis.Complexity = "moderate"
	case comparisonCueRe.MatchString(trimmed):
		analysis.IntentType = "comparison"
		analysis.Complexity = "moderate"
	case aggregationCueRe.MatchString(trimmed):
		analysis.IntentType = "aggregation"
	}

	for _, m := range relationCueRe.FindAllString(strings.ToLower(trimmed), -1) {
		if !containsString(analysis.LikelyRelations, m) {
			analysis.LikelyRelations = append(analysis.LikelyRelations, m)
		}
	}

	if len(analysis.LikelyRelations) > 2 {
		analysis.Complexity = "complex"
		analysis.Recommendations = append(analysis.Recommendations,
			"question spans several entities; consider splitting it into narrower questions")
	}
	if analysis.IntentType == "retrieval" && len(analysis.LikelyRelations) == 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			"name the entity you want data about for a more precise query")
	}
	if analysis.IntentType == "temporal_analysis" {
		analysis.Recommendations = append(analysis.Recommendations,
			"include an explicit date range to bound the result set")
	}

	return analysis
}

// defaultSuggestions are served when no retrieval backend is configured or
// it returns nothing useful
var defaultSuggestions = []string{
	"Show me the top 10 customers by total order value",
	"How many orders were placed last month?",
	"What is the average order value by product category?",
	"List products that have never been ordered",
	"Compare sales this quarter versus last quarter",
}

// Suggestions returns example questions, seeded from the retrieval backend
// when one is configured
func (a *Analyzer) Suggestions(ctx context.Context, topic string) []string {
	if a.retriever == nil || strings.TrimSpace(topic) == "" {
		return defaultSuggestions
	}

	snippets := a.retriever.Retrieve(ctx, topic)
	if len(snippets) == 0 {
		return defaultSuggestions
	}

	suggestions := make([]string, 0, len(snippets))
	for _, s := range snippets {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		suggestions = append(suggestions, "Ask about: "+firstSentence(text))
	}
	if len(suggestions) == 0 {
		return defaultSuggestions
	}
	return suggestions
}

func firstSentence(text string) string {
	if idx := strings.IndexAny(text, ".\n"); idx > 0 {
		return text[:idx]
	}
	if len(text) > 120 {
		return text[:120]
	}
	return text
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
