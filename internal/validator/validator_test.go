package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_BlockingRules(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		query  string
		reason BlockingReason
	}{
		{
			name:   "drop statement",
			query:  "DROP TABLE customers",
			reason: ReasonMutatingOperation,
		},
		{
			name:   "delete statement",
			query:  "DELETE FROM customers",
			reason: ReasonMutatingOperation,
		},
		{
			name:   "lowercase update",
			query:  "update orders set status = 'done'",
			reason: ReasonMutatingOperation,
		},
		{
			name:   "stacked statements",
			query:  "SELECT id FROM customers; SELECT id FROM orders",
			reason: ReasonMultiStatement,
		},
		{
			name:   "numeric tautology",
			query:  "SELECT id FROM customers WHERE name = 'x' OR 1=1",
			reason: ReasonInjectionPattern,
		},
		{
			name:   "string tautology",
			query:  "SELECT id FROM customers WHERE name = 'x' OR 'a'='a'",
			reason: ReasonInjectionPattern,
		},
		{
			name:   "trailing comment truncation",
			query:  "SELECT id FROM customers WHERE name = 'x' --",
			reason: ReasonInjectionPattern,
		},
		{
			name:   "unbalanced parentheses",
			query:  "SELECT COUNT(id FROM customers",
			reason: ReasonStructuralImbalance,
		},
		{
			name:   "unterminated quote",
			query:  "SELECT id FROM customers WHERE name = 'x",
			reason: ReasonStructuralImbalance,
		},
		{
			name:   "empty query",
			query:  "   ",
			reason: ReasonEmptyQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := v.Validate(tt.query)
			assert.False(t, verdict.IsValid)
			assert.Equal(t, tt.reason, verdict.BlockingReason)
			assert.NotEmpty(t, verdict.Message)
		})
	}
}

func TestValidate_SafeQueries(t *testing.T) {
	v := New()

	safe := []string{
		"SELECT id, name FROM customers LIMIT 10",
		"SELECT c.name, SUM(o.total) FROM customers c JOIN orders o ON c.id = o.customer_id GROUP BY c.name ORDER BY SUM(o.total) DESC LIMIT 5",
		"WITH recent AS (SELECT * FROM orders WHERE created_at > NOW() - INTERVAL '30 days') SELECT COUNT(*) FROM recent",
		"SELECT id FROM products WHERE category = 'Furniture' LIMIT 100;",
	}

	for _, query := range safe {
		verdict := v.Validate(query)
		assert.True(t, verdict.IsValid, "expected valid: %s", query)
		assert.Equal(t, ReasonNone, verdict.BlockingReason)
	}
}

func TestValidate_RuleOrder(t *testing.T) {
	v := New()

	// Carries both a mutation and a stacked statement; the mutating-operation
	// rule is checked first and must win.
	verdict := v.Validate("SELECT id FROM a; DROP TABLE a")
	assert.Equal(t, ReasonMutatingOperation, verdict.BlockingReason)
}

func TestValidate_QuotedKeywordIsNotMutation(t *testing.T) {
	v := New()

	verdict := v.Validate("SELECT id FROM audit_log WHERE action = 'DELETE' LIMIT 10")
	assert.True(t, verdict.IsValid)
}

func TestValidate_AdvisoryWarnings(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		query    string
		contains string
	}{
		{
			name:     "missing limit",
			query:    "SELECT id FROM customers",
			contains: "row-limiting",
		},
		{
			name:     "wildcard select",
			query:    "SELECT * FROM customers LIMIT 10",
			contains: "wildcard",
		},
		{
			name:     "large literal",
			query:    "SELECT id FROM customers WHERE blob = '" + strings.Repeat("x", 300) + "' LIMIT 1",
			contains: "large string literal",
		},
		{
			name:     "unqualified join",
			query:    "SELECT name FROM customers JOIN orders ON id = customer_id LIMIT 10",
			contains: "qualified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := v.Validate(tt.query)
			require.True(t, verdict.IsValid)
			found := false
			for _, w := range verdict.Warnings {
				if strings.Contains(w, tt.contains) {
					found = true
				}
			}
			assert.True(t, found, "expected a warning containing %q, got %v", tt.contains, verdict.Warnings)
		})
	}
}

func TestValidate_StructuralMetrics(t *testing.T) {
	v := New()

	verdict := v.Validate("SELECT c.name, SUM(o.total) FROM customers c JOIN orders o ON c.id = o.customer_id GROUP BY c.name LIMIT 5")
	require.True(t, verdict.IsValid)

	m := verdict.Metrics
	assert.Equal(t, 1, m.StatementCount)
	assert.True(t, m.HasLimit)
	assert.Equal(t, []string{"customers", "orders"}, m.ReferencedRelations)
	assert.True(t, m.HasAggregation)
	assert.True(t, m.HasJoins)
	assert.True(t, m.HasGroupBy)
	assert.False(t, m.HasSubquery)
	assert.Equal(t, "complex", m.Complexity)
}

func TestBypassedVerdict(t *testing.T) {
	verdict := BypassedVerdict("DELETE FROM customers")

	// Bypass never silently skips producing a verdict
	assert.True(t, verdict.IsValid)
	require.Len(t, verdict.Warnings, 1)
	assert.Contains(t, verdict.Warnings[0], "bypassed")
}

func TestApplyDefaultLimit(t *testing.T) {
	assert.Equal(t, "SELECT id FROM customers LIMIT 1000",
		ApplyDefaultLimit("SELECT id FROM customers;", 1000))

	// Already bounded queries pass through untouched
	q := "SELECT id FROM customers LIMIT 5"
	assert.Equal(t, q, ApplyDefaultLimit(q, 1000))
}
