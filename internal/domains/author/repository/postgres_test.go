package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/author"
	"library-backend/internal/domains/author/repository"
	"library-backend/internal/shared/errs"
	"library-backend/internal/testutil/pgtest"
)

func TestPostgresRepository_Lifecycle(t *testing.T) {
	h := pgtest.Open(t)
	ctx := context.Background()
	repo := repository.NewPostgresRepository(h.PG.Pool, nil)
	now := time.Now().UTC().Truncate(time.Microsecond)

	created, err := repo.Create(ctx, &author.Author{
		ID: uuid.New(), Name: "Octavia Butler", Nationality: "American", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Octavia Butler", got.Name)

	filter := author.AuthorFilter{Nationality: "american"}
	require.NoError(t, filter.Normalize())
	list, total, err := repo.List(ctx, filter)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	got.Name = "Octavia E. Butler"
	updated, err := repo.Update(ctx, got, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	_, err = repo.Update(ctx, got, 1)
	assert.ErrorIs(t, err, errs.ErrConcurrentModification)

	bookID := uuid.New()
	_, err = h.SQLX.Exec(`INSERT INTO books (id, title, isbn) VALUES ($1, 'Kindred', '9780807083697')`, bookID)
	require.NoError(t, err)
	_, err = h.SQLX.Exec(`INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2)`, bookID, created.ID)
	require.NoError(t, err)

	count, err := repo.GetBookCount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, errs.ErrHasActiveDependents)

	_, err = h.SQLX.Exec(`DELETE FROM book_authors WHERE author_id = $1`, created.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, errs.ErrAuthorNotFound)
}
