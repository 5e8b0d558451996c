package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/author"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/shared/errs"
	"library-backend/pkg/cache"
	"library-backend/pkg/logger"
)

const (
	cacheTTL     = 15 * time.Minute
	listCacheTTL = 2 * time.Minute
	listKeyFmt   = "authors:list:%s:%s:%s:%s:%d:%d"
)

var authorColumns = []interface{}{
	"id", "name", "biography", "nationality", "birth_year", "version", "created_at", "updated_at",
}

// postgresRepository stores authors in PostgreSQL with a read-through cache.
type postgresRepository struct {
	pool    *pgxpool.Pool
	cache   cache.Cache
	builder goqu.DialectWrapper
}

func NewPostgresRepository(pool *pgxpool.Pool, c cache.Cache) author.Repository {
	if c == nil {
		c = cache.Noop{}
	}
	return &postgresRepository{
		pool:    pool,
		cache:   c,
		builder: goqu.Dialect("postgres"),
	}
}

func (r *postgresRepository) Create(ctx context.Context, a *author.Author) (*author.Author, error) {
	query := `
		INSERT INTO authors (id, name, biography, nationality, birth_year, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
		RETURNING id, name, biography, nationality, birth_year, version, created_at, updated_at
	`
	rows, err := r.pool.Query(ctx, query,
		a.ID, a.Name, a.Biography, a.Nationality, a.BirthYear, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, database.MapError("create author", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[author.Author])
	if err != nil {
		return nil, database.MapError("create author", err)
	}

	r.invalidateList(ctx)
	return created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*author.Author, error) {
	key := author.CacheKey(id)
	var a author.Author
	if found, err := r.cache.Get(ctx, key, &a); err == nil && found {
		return &a, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, biography, nationality, birth_year, version, created_at, updated_at
		FROM authors
		WHERE id = $1`, id)
	if err != nil {
		return nil, database.MapError("get author", err)
	}
	found, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[author.Author])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, author.ErrAuthorNotFound
	}
	if err != nil {
		return nil, database.MapError("get author", err)
	}

	if err := r.cache.Set(ctx, key, found, cacheTTL); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("author cache set failed")
	}
	return found, nil
}

type authorPage struct {
	Items []author.Author `json:"items"`
	Total int64           `json:"total"`
}

// List expects a normalized filter.
func (r *postgresRepository) List(ctx context.Context, filter author.AuthorFilter) ([]author.Author, int64, error) {
	key := fmt.Sprintf(listKeyFmt, filter.Name, filter.Nationality, filter.SortBy, filter.Order, filter.Limit, filter.Offset)
	var page authorPage
	if found, err := r.cache.Get(ctx, key, &page); err == nil && found {
		return page.Items, page.Total, nil
	}

	base := r.builder.From("authors").Prepared(true)
	if filter.Name != "" {
		base = base.Where(goqu.C("name").ILike("%" + filter.Name + "%"))
	}
	if filter.Nationality != "" {
		base = base.Where(goqu.L("LOWER(nationality)").Eq(goqu.L("LOWER(?)", filter.Nationality)))
	}

	countSQL, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, database.MapError("build author count", err)
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, database.MapError("count authors", err)
	}

	order := goqu.C(filter.SortBy).Desc()
	if filter.Order == "asc" {
		order = goqu.C(filter.SortBy).Asc()
	}
	listSQL, listArgs, err := base.
		Select(authorColumns...).
		Order(order, goqu.C("id").Asc()).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, database.MapError("build author list", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, database.MapError("list authors", err)
	}
	authors, err := pgx.CollectRows(rows, pgx.RowToStructByName[author.Author])
	if err != nil {
		return nil, 0, database.MapError("list authors", err)
	}

	_ = r.cache.Set(ctx, key, authorPage{Items: authors, Total: total}, listCacheTTL)
	return authors, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, a *author.Author, currentVersion int) (*author.Author, error) {
	query := `
		UPDATE authors
		SET name = $1, biography = $2, nationality = $3, birth_year = $4,
		    version = version + 1, updated_at = NOW()
		WHERE id = $5 AND version = $6
		RETURNING id, name, biography, nationality, birth_year, version, created_at, updated_at
	`
	rows, err := r.pool.Query(ctx, query,
		a.Name, a.Biography, a.Nationality, a.BirthYear, a.ID, currentVersion)
	if err != nil {
		return nil, database.MapError("update author", err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[author.Author])
	if errors.Is(err, pgx.ErrNoRows) {
		exists, checkErr := r.exists(ctx, a.ID)
		if checkErr != nil {
			return nil, checkErr
		}
		if !exists {
			return nil, author.ErrAuthorNotFound
		}
		return nil, author.ErrVersionMismatch
	}
	if err != nil {
		return nil, database.MapError("update author", err)
	}

	r.invalidate(ctx, a.ID)
	return updated, nil
}

// Delete relies on the book_authors foreign key as the last line against
// removing a linked author.
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		mapped := database.MapError("delete author", err)
		if errors.Is(mapped, errs.ErrHasActiveDependents) {
			return author.ErrAuthorHasBooks
		}
		return mapped
	}
	if tag.RowsAffected() == 0 {
		return author.ErrAuthorNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresRepository) GetBookCount(ctx context.Context, authorID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM book_authors WHERE author_id = $1`, authorID).Scan(&n)
	if err != nil {
		return 0, database.MapError("count author books", err)
	}
	return n, nil
}

func (r *postgresRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM authors WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, database.MapError("check author", err)
	}
	return exists, nil
}

func (r *postgresRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, author.CacheKey(id)); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("author_id", id.String()).Msg("author cache invalidation failed")
	}
	r.invalidateList(ctx)
}

func (r *postgresRepository) invalidateList(ctx context.Context) {
	if err := r.cache.DeletePattern(ctx, author.ListCachePattern); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("author list cache invalidation failed")
	}
}
