// Package pgtest connects integration tests to a disposable PostgreSQL
// database named by LIBRARY_TEST_DATABASE_URL. Tests are skipped when the
// variable is unset.
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/require"

	"library-backend/db/migrations"
	"library-backend/internal/infrastructure/database"
)

const EnvDatabaseURL = "LIBRARY_TEST_DATABASE_URL"

// Handles bundles the pgx pool and the sqlx handle onto the same database.
type Handles struct {
	PG   *database.PostgresDB
	SQLX *sqlx.DB
}

// Open migrates the schema, empties every table and registers cleanup.
func Open(t *testing.T) *Handles {
	t.Helper()
	url := os.Getenv(EnvDatabaseURL)
	if url == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}
	ctx := context.Background()

	sx, err := sqlx.Open("postgres", url)
	require.NoError(t, err)
	require.NoError(t, migrations.Up(ctx, sx.DB))

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)

	h := &Handles{PG: &database.PostgresDB{Pool: pool}, SQLX: sx}
	Truncate(t, h)
	t.Cleanup(func() {
		pool.Close()
		sx.Close()
	})
	return h
}

// Truncate empties all library tables.
func Truncate(t *testing.T, h *Handles) {
	t.Helper()
	_, err := h.SQLX.Exec(`TRUNCATE borrowings, book_authors, books, members, authors`)
	require.NoError(t, err)
}
