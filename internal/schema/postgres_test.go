package schema

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func columnRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
		AddRow("products", "id", "integer").
		AddRow("products", "name", "text").
		AddRow("orders", "id", "integer").
		AddRow("orders", "placed_at", "timestamp with time zone")
}

func TestPostgresProvider_FormatsSchemaText(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WithArgs("public").
		WillReturnRows(columnRows())

	p := NewPostgresProvider(db, "public", time.Minute)

	text, err := p.SchemaText(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "Table public.products:")
	assert.Contains(t, text, "  - name (text)")
	assert.Contains(t, text, "Table public.orders:")
	assert.Contains(t, text, "  - placed_at (timestamp with time zone)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_CachesWithinRefreshWindow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WithArgs("public").
		WillReturnRows(columnRows())

	p := NewPostgresProvider(db, "public", time.Hour)

	first, err := p.SchemaText(context.Background())
	require.NoError(t, err)

	// no second query expectation; a second call must hit the cache
	second, err := p.SchemaText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_ServesStaleOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WithArgs("public").
		WillReturnRows(columnRows())
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WithArgs("public").
		WillReturnError(errors.New("connection reset"))

	p := NewPostgresProvider(db, "public", time.Nanosecond)

	first, err := p.SchemaText(context.Background())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	second, err := p.SchemaText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPostgresProvider_ErrorsWithNothingCached(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WithArgs("public").
		WillReturnError(errors.New("connection refused"))

	p := NewPostgresProvider(db, "public", time.Minute)

	_, err := p.SchemaText(context.Background())
	assert.Error(t, err)
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider("Table public.items:\n  - id (integer)")
	text, err := p.SchemaText(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "items")
}
