package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresProvider builds the schema text by introspecting the target
// database catalog. The description is cached and refreshed lazily.
type PostgresProvider struct {
	db         *sqlx.DB
	schemaName string
	refresh    time.Duration

	mu        sync.Mutex
	cached    string
	fetchedAt time.Time
}

// NewPostgresProvider creates a provider introspecting the given schema
func NewPostgresProvider(db *sqlx.DB, schemaName string, refresh time.Duration) *PostgresProvider {
	if schemaName == "" {
		schemaName = "public"
	}
	if refresh <= 0 {
		refresh = 10 * time.Minute
	}
	return &PostgresProvider{db: db, schemaName: schemaName, refresh: refresh}
}

type columnRow struct {
	TableName  string `db:"table_name"`
	ColumnName string `db:"column_name"`
	DataType   string `db:"data_type"`
}

// SchemaText implements Provider
func (p *PostgresProvider) SchemaText(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" && time.Since(p.fetchedAt) < p.refresh {
		return p.cached, nil
	}

	var columns []columnRow
	query := `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position
	`
	if err := p.db.SelectContext(ctx, &columns, query, p.schemaName); err != nil {
		// Serve the stale description rather than failing the pipeline
		if p.cached != "" {
			return p.cached, nil
		}
		return "", fmt.Errorf("schema introspection failed: %w", err)
	}

	var b strings.Builder
	currentTable := ""
	for _, col := range columns {
		if col.TableName != currentTable {
			if currentTable != "" {
				b.WriteString("\n")
			}
			currentTable = col.TableName
			fmt.Fprintf(&b, "Table %s.%s:\n", p.schemaName, col.TableName)
		}
		fmt.Fprintf(&b, "  - %s (%s)\n", col.ColumnName, col.DataType)
	}

	p.cached = b.String()
	p.fetchedAt = time.Now()
	return p.cached, nil
}
