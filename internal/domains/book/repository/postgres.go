package repository

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	jsoniter "github.com/json-iterator/go"

	"library-backend/internal/domains/book"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/shared/errs"
	"library-backend/pkg/cache"
	"library-backend/pkg/logger"
)

const (
	cacheTTL     = 15 * time.Minute
	listCacheTTL = 2 * time.Minute

	isbnConstraint = "books_isbn_key"
)

var bookColumns = []interface{}{
	"id", "title", "isbn", "category", "available", "borrow_count", "version", "created_at", "updated_at",
}

type postgresRepository struct {
	db      *database.PostgresDB
	cache   cache.Cache
	builder goqu.DialectWrapper
}

func NewPostgresRepository(db *database.PostgresDB, c cache.Cache) book.Repository {
	if c == nil {
		c = cache.Noop{}
	}
	return &postgresRepository{
		db:      db,
		cache:   c,
		builder: goqu.Dialect("postgres"),
	}
}

// Create inserts the book and its author links in one transaction.
func (r *postgresRepository) Create(ctx context.Context, b *book.Book) (*book.Book, error) {
	err := r.db.ExecuteInTransaction(ctx, nil, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO books (id, title, isbn, category, available, borrow_count, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 0, 1, $6, $7)`,
			b.ID, b.Title, b.ISBN, b.Category, b.Available, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return linkAuthors(ctx, tx, b.ID, b.AuthorIDs)
	})
	if err != nil {
		return nil, mapWriteError("create book", err)
	}

	created := b.Clone()
	created.Version = 1
	created.BorrowCount = 0
	r.invalidateList(ctx)
	return created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	key := book.CacheKey(id)
	var cached book.Book
	if found, err := r.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	query, args, err := r.builder.From("books").Prepared(true).
		Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, database.MapError("build book query", err)
	}
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, database.MapError("get book", err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[book.Book])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, database.MapError("get book", err)
	}

	if err := r.attachAuthors(ctx, []*book.Book{b}); err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, b, cacheTTL); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("book cache set failed")
	}
	return b, nil
}

func (r *postgresRepository) ExistsByISBN(ctx context.Context, isbn string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1 AND id <> $2)`, isbn, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, database.MapError("check isbn", err)
	}
	return exists, nil
}

type bookPage struct {
	Items []book.Book `json:"items"`
	Total int64       `json:"total"`
}

// List expects a normalized filter. Pages are cached under a hash of the filter.
func (r *postgresRepository) List(ctx context.Context, filter book.BookFilter) ([]book.Book, int64, error) {
	key := listCacheKey(filter)
	var page bookPage
	if found, err := r.cache.Get(ctx, key, &page); err == nil && found {
		return page.Items, page.Total, nil
	}

	base := r.builder.From("books").Prepared(true)
	if filter.Title != "" {
		base = base.Where(goqu.C("title").ILike("%" + filter.Title + "%"))
	}
	if filter.Category != "" {
		base = base.Where(goqu.C("category").Eq(filter.Category))
	}
	if filter.Available != nil {
		base = base.Where(goqu.C("available").Eq(*filter.Available))
	}
	if filter.AuthorID != "" {
		base = base.Where(goqu.C("id").In(
			r.builder.From("book_authors").
				Select("book_id").
				Where(goqu.C("author_id").Eq(filter.AuthorID)),
		))
	}

	countSQL, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, database.MapError("build book count", err)
	}
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, database.MapError("count books", err)
	}

	order := goqu.C(filter.SortBy).Desc()
	if filter.Order == "asc" {
		order = goqu.C(filter.SortBy).Asc()
	}
	listSQL, listArgs, err := base.
		Select(bookColumns...).
		Order(order, goqu.C("id").Asc()).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, database.MapError("build book list", err)
	}

	books, err := r.query(ctx, "list books", listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}

	_ = r.cache.Set(ctx, key, bookPage{Items: books, Total: total}, listCacheTTL)
	return books, total, nil
}

func (r *postgresRepository) TopBorrowed(ctx context.Context, limit int) ([]book.Book, error) {
	query, args, err := r.builder.From("books").Prepared(true).
		Select(bookColumns...).
		Where(goqu.C("borrow_count").Gt(0)).
		Order(goqu.C("borrow_count").Desc(), goqu.C("title").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, database.MapError("build top borrowed", err)
	}
	return r.query(ctx, "top borrowed books", query, args...)
}

// Update writes the catalogue fields and replaces author links. Availability
// and borrow_count belong to the borrowing engine and are left alone.
func (r *postgresRepository) Update(ctx context.Context, b *book.Book, currentVersion int) (*book.Book, error) {
	var updated *book.Book
	err := r.db.ExecuteInTransaction(ctx, nil, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE books
			SET title = $1, isbn = $2, category = $3, version = version + 1, updated_at = NOW()
			WHERE id = $4 AND version = $5
			RETURNING id, title, isbn, category, available, borrow_count, version, created_at, updated_at`,
			b.Title, b.ISBN, b.Category, b.ID, currentVersion,
		)
		if err != nil {
			return err
		}
		updated, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[book.Book])
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, b.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return book.ErrBookNotFound
			}
			return book.ErrVersionConflict
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM book_authors WHERE book_id = $1`, b.ID); err != nil {
			return err
		}
		if err := linkAuthors(ctx, tx, b.ID, b.AuthorIDs); err != nil {
			return err
		}
		updated.AuthorIDs = append([]uuid.UUID(nil), b.AuthorIDs...)
		return nil
	})
	if err != nil {
		return nil, mapWriteError("update book", err)
	}

	r.invalidate(ctx, b.ID)
	return updated, nil
}

// Delete removes a book no borrowing has ever referenced. Borrowings are
// history, so a book that was lent once stays. The check and the delete are
// one statement; the RESTRICT foreign key covers a borrow racing in.
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM books
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM borrowings WHERE book_id = $1)`, id)
	if err != nil {
		return database.MapError("delete book", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainRefusedDelete(ctx, id)
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresRepository) explainRefusedDelete(ctx context.Context, id uuid.UUID) error {
	var exists, lent, active bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT
		    EXISTS (SELECT 1 FROM books WHERE id = $1),
		    EXISTS (SELECT 1 FROM borrowings WHERE book_id = $1),
		    EXISTS (SELECT 1 FROM borrowings WHERE book_id = $1 AND status IN ('BORROWED', 'OVERDUE'))`,
		id,
	).Scan(&exists, &lent, &active)
	if err != nil {
		return database.MapError("check book dependents", err)
	}
	switch {
	case !exists:
		return book.ErrBookNotFound
	case active:
		return book.ErrBookHasActiveBorrowings
	case lent:
		return book.ErrBookHasHistory
	}
	// Deleted concurrently between the two statements.
	return book.ErrBookNotFound
}

func (r *postgresRepository) HasActiveBorrowings(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
		    SELECT 1 FROM borrowings
		    WHERE book_id = $1 AND status IN ('BORROWED', 'OVERDUE')
		)`, id).Scan(&active)
	if err != nil {
		return false, database.MapError("check active borrowings", err)
	}
	return active, nil
}

func (r *postgresRepository) query(ctx context.Context, op, sql string, args ...interface{}) ([]book.Book, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, database.MapError(op, err)
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[book.Book])
	if err != nil {
		return nil, database.MapError(op, err)
	}

	ptrs := make([]*book.Book, len(books))
	for i := range books {
		ptrs[i] = &books[i]
	}
	if err := r.attachAuthors(ctx, ptrs); err != nil {
		return nil, err
	}
	return books, nil
}

// attachAuthors fills AuthorIDs from book_authors with one query.
func (r *postgresRepository) attachAuthors(ctx context.Context, books []*book.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(books))
	byID := make(map[uuid.UUID]*book.Book, len(books))
	for i, b := range books {
		ids[i] = b.ID
		b.AuthorIDs = []uuid.UUID{}
		byID[b.ID] = b
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT book_id, author_id FROM book_authors WHERE book_id = ANY($1) ORDER BY book_id, author_id`, ids)
	if err != nil {
		return database.MapError("load book authors", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID, authorID uuid.UUID
		if err := rows.Scan(&bookID, &authorID); err != nil {
			return database.MapError("scan book authors", err)
		}
		if b, ok := byID[bookID]; ok {
			b.AuthorIDs = append(b.AuthorIDs, authorID)
		}
	}
	if err := rows.Err(); err != nil {
		return database.MapError("load book authors", err)
	}
	return nil
}

func linkAuthors(ctx context.Context, tx pgx.Tx, bookID uuid.UUID, authorIDs []uuid.UUID) error {
	if len(authorIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, authorID := range authorIDs {
		batch.Queue(`INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			bookID, authorID)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range authorIDs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// mapWriteError turns constraint violations into book errors.
func mapWriteError(op string, err error) error {
	if database.IsUniqueViolation(err, isbnConstraint) {
		return book.ErrISBNAlreadyExists
	}
	mapped := database.MapError(op, err)
	if errors.Is(mapped, errs.ErrHasActiveDependents) {
		// book_authors.author_id is the only foreign key a book write can break.
		return book.ErrUnknownAuthor
	}
	return mapped
}

func (r *postgresRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, book.CacheKey(id)); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("book_id", id.String()).Msg("book cache invalidation failed")
	}
	r.invalidateList(ctx)
}

func (r *postgresRepository) invalidateList(ctx context.Context) {
	if err := r.cache.DeletePattern(ctx, book.ListCachePattern); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("book list cache invalidation failed")
	}
}

func listCacheKey(filter book.BookFilter) string {
	data, _ := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(filter)
	return fmt.Sprintf("books:list:%x", md5.Sum(data))
}
