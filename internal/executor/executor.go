package executor

import (
	"context"
	"time"
)

// Result is the outcome of running a query
type Result struct {
	Columns  []string                 `json:"columns"`
	Rows     []map[string]interface{} `json:"rows"`
	RowCount int                      `json:"row_count"`
	Duration time.Duration            `json:"duration"`
}

// Executor is the external query-execution capability. Only invoked for
// queries that already passed validation.
type Executor interface {
	Run(ctx context.Context, queryText string) (*Result, error)
}
