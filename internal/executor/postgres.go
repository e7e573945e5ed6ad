package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresExecutor runs read queries against the target warehouse through a
// read-only transaction, as defense in depth on top of validation.
type PostgresExecutor struct {
	db       *sqlx.DB
	maxRows  int
	deadline time.Duration
}

// NewPostgresExecutor creates an executor over an existing connection pool
func NewPostgresExecutor(db *sqlx.DB, maxRows int, deadline time.Duration) *PostgresExecutor {
	if maxRows <= 0 {
		maxRows = 1000
	}
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	return &PostgresExecutor{db: db, maxRows: maxRows, deadline: deadline}
}

// Run implements Executor
func (e *PostgresExecutor) Run(ctx context.Context, queryText string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	start := time.Now()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SET TRANSACTION READ ONLY"); err != nil {
		return nil, fmt.Errorf("failed to set read-only transaction: %w", err)
	}

	rows, err := tx.QueryxContext(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		if result.RowCount >= e.maxRows {
			break
		}
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		normalizeRow(row)
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// normalizeRow converts driver byte slices into strings so results serialize
// as JSON text instead of base64
func normalizeRow(row map[string]interface{}) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
}
