package validator

import (
	"strconv"
	"strings"
)

// metrics derives the structural metrics reported with every verdict
func (q *scannedQuery) metrics() StructuralMetrics {
	m := StructuralMetrics{
		StatementCount:      q.statementCount,
		HasLimit:            q.hasLimit(),
		ReferencedRelations: q.relations(),
		HasJoins:            strings.Contains(q.upper, " JOIN "),
		HasGroupBy:          strings.Contains(q.upper, "GROUP BY"),
		HasSubquery:         strings.Count(q.upper, "SELECT") > 1,
	}

	for _, fn := range []string{"COUNT(", "SUM(", "AVG(", "MIN(", "MAX("} {
		if strings.Contains(q.upper, fn) {
			m.HasAggregation = true
			break
		}
	}

	m.Complexity = estimateComplexity(q, m)
	return m
}

// relations extracts table names referenced via FROM/JOIN, deduplicated in
// first-seen order
func (q *scannedQuery) relations() []string {
	seen := make(map[string]bool)
	var relations []string
	for _, match := range relationRe.FindAllStringSubmatch(q.stripped, -1) {
		name := strings.ToLower(match[1])
		if !seen[name] {
			seen[name] = true
			relations = append(relations, name)
		}
	}
	return relations
}

func estimateComplexity(q *scannedQuery, m StructuralMetrics) string {
	score := 0

	if m.HasJoins {
		score += strings.Count(q.upper, " JOIN ") * 2
	}
	if m.HasSubquery {
		score += 3
	}
	if m.HasGroupBy {
		score += 2
	}
	if m.HasAggregation {
		score++
	}

	switch {
	case score == 0:
		return "simple"
	case score <= 3:
		return "moderate"
	case score <= 6:
		return "complex"
	default:
		return "very complex"
	}
}

// ApplyDefaultLimit appends a LIMIT clause to a query that has none. Callers
// use this on the executed form only; the generated text returned to the user
// and stored in the cache is never rewritten.
func ApplyDefaultLimit(queryText string, defaultLimit int) string {
	q := scan(strings.TrimSpace(queryText))
	if q.hasLimit() {
		return queryText
	}
	return strings.TrimRight(strings.TrimSpace(queryText), ";") + " LIMIT " + strconv.Itoa(defaultLimit)
}
