package validator

import (
	"strings"
)

// BlockingReason identifies the rule that rejected a query
type BlockingReason string

const (
	ReasonNone                BlockingReason = ""
	ReasonEmptyQuery          BlockingReason = "empty_query"
	ReasonQueryTooLong        BlockingReason = "query_too_long"
	ReasonMutatingOperation   BlockingReason = "mutating_operation"
	ReasonMultiStatement      BlockingReason = "multi_statement"
	ReasonInjectionPattern    BlockingReason = "injection_pattern"
	ReasonStructuralImbalance BlockingReason = "structural_imbalance"
)

// StructuralMetrics describes the shape of a query without executing it
type StructuralMetrics struct {
	StatementCount      int      `json:"statement_count"`
	HasLimit            bool     `json:"has_limit"`
	ReferencedRelations []string `json:"referenced_relations"`
	HasAggregation      bool     `json:"has_aggregation"`
	HasJoins            bool     `json:"has_joins"`
	HasSubquery         bool     `json:"has_subquery"`
	HasGroupBy          bool     `json:"has_group_by"`
	Complexity          string   `json:"complexity"`
}

// Verdict is the validator's classification of a single generated query
type Verdict struct {
	IsValid        bool              `json:"is_valid"`
	BlockingReason BlockingReason    `json:"blocking_reason,omitempty"`
	Message        string            `json:"message,omitempty"`
	Warnings       []string          `json:"warnings"`
	Metrics        StructuralMetrics `json:"structural_metrics"`
}

// rule is one entry in the ordered rule list. Blocking rules return a
// non-empty reason; advisory rules only append warnings.
type rule struct {
	reason BlockingReason
	check  func(q *scannedQuery) (string, bool)
}

// Validator classifies generated query text as safe or unsafe in a single
// pass. It is deterministic and dialect-agnostic; dialect quirks belong to
// the prompt composer, not here.
type Validator struct {
	maxQueryLength int
	blocking       []rule
	advisory       []func(q *scannedQuery) (string, bool)
}

// New creates a validator with the default rule set
func New() *Validator {
	v := &Validator{
		maxQueryLength: 5000,
	}

	// Order matters: first blocking match wins.
	v.blocking = []rule{
		{ReasonMutatingOperation, checkMutatingOperation},
		{ReasonMultiStatement, checkMultiStatement},
		{ReasonInjectionPattern, checkInjectionPattern},
		{ReasonStructuralImbalance, checkStructuralImbalance},
	}

	v.advisory = []func(q *scannedQuery) (string, bool){
		warnMissingLimit,
		warnWildcardSelect,
		warnLargeLiteral,
		warnUnqualifiedJoin,
	}

	return v
}

// Validate classifies a query. All advisory findings are collected even when
// the query is valid; on a blocking match the matching reason is reported and
// remaining blocking rules are skipped.
func (v *Validator) Validate(queryText string) Verdict {
	verdict := Verdict{Warnings: []string{}}

	trimmed := strings.TrimSpace(queryText)
	if trimmed == "" {
		verdict.BlockingReason = ReasonEmptyQuery
		verdict.Message = "query is empty"
		return verdict
	}
	if len(trimmed) > v.maxQueryLength {
		verdict.BlockingReason = ReasonQueryTooLong
		verdict.Message = "query exceeds maximum length"
		return verdict
	}

	q := scan(trimmed)
	verdict.Metrics = q.metrics()

	for _, r := range v.blocking {
		if msg, hit := r.check(q); hit {
			verdict.BlockingReason = r.reason
			verdict.Message = msg
			return verdict
		}
	}

	for _, check := range v.advisory {
		if msg, hit := check(q); hit {
			verdict.Warnings = append(verdict.Warnings, msg)
		}
	}

	verdict.IsValid = true
	return verdict
}

// BypassedVerdict returns the verdict used when an operator explicitly turns
// validation off. A verdict is always produced; skipping validation is
// recorded as a warning, never done silently.
func BypassedVerdict(queryText string) Verdict {
	q := scan(strings.TrimSpace(queryText))
	return Verdict{
		IsValid:  true,
		Warnings: []string{"validation was bypassed by request; the query was not checked for safety"},
		Metrics:  q.metrics(),
	}
}
