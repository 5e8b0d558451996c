package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/borrowing"
	"library-backend/internal/domains/member"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/shared/errs"
	"library-backend/pkg/logger"
)

const (
	bookColumns      = `id, title, isbn, category, available, borrow_count, version, created_at, updated_at`
	memberColumns    = `id, name, email, phone, address, join_date, status, active_borrowings, total_borrowed, version, updated_at`
	borrowingColumns = `id, member_id, book_id, borrow_date, due_date, return_date, status, fine_amount, notes, version, created_at, updated_at`
)

// postgresGateway runs each engine call in one read committed transaction.
// Rows are locked with FOR UPDATE in id order so concurrent batches acquire
// locks in the same sequence.
type postgresGateway struct {
	db *database.PostgresDB
}

func NewPostgresGateway(db *database.PostgresDB) borrowing.Gateway {
	return &postgresGateway{db: db}
}

func (g *postgresGateway) WithinTx(ctx context.Context, fn borrowing.TxFunc) error {
	started := time.Now()
	err := g.db.ExecuteInTransaction(ctx, &database.TxOptions{IsoLevel: database.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgxTx{tx: tx})
	})
	l := logger.FromContext(ctx)
	if err != nil {
		l.Debug().Err(err).Dur("took", time.Since(started)).Msg("borrowing transaction rolled back")
		return database.MapError("borrowing tx", err)
	}
	l.Debug().Dur("took", time.Since(started)).Msg("borrowing transaction committed")
	return nil
}

type pgxTx struct {
	tx pgx.Tx
}

var _ borrowing.Tx = (*pgxTx)(nil)

func (t *pgxTx) FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]*book.Book, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, database.MapError("find books", err)
	}
	books, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[book.Book])
	if err != nil {
		return nil, database.MapError("find books", err)
	}
	return books, nil
}

func (t *pgxTx) FindMemberByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, database.MapError("find member", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[member.Member])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrMemberNotFound
	}
	if err != nil {
		return nil, database.MapError("find member", err)
	}
	return m, nil
}

func (t *pgxTx) FindBorrowingsByIDs(ctx context.Context, ids []uuid.UUID) ([]*borrowing.Borrowing, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+borrowingColumns+` FROM borrowings WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, database.MapError("find borrowings", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[borrowing.Borrowing])
	if err != nil {
		return nil, database.MapError("find borrowings", err)
	}
	return items, nil
}

func (t *pgxTx) CountActiveBorrowings(ctx context.Context, memberID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM borrowings WHERE member_id = $1 AND status IN ('BORROWED', 'OVERDUE')`,
		memberID,
	).Scan(&n)
	if err != nil {
		return 0, database.MapError("count active borrowings", err)
	}
	return n, nil
}

// FindDueBorrowings skips rows locked by in-flight returns; the next sweep picks them up.
func (t *pgxTx) FindDueBorrowings(ctx context.Context, asOf time.Time, limit int) ([]*borrowing.Borrowing, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+borrowingColumns+`
		FROM borrowings
		WHERE status = 'BORROWED' AND due_date < $1
		ORDER BY due_date, id
		LIMIT $2
		FOR UPDATE SKIP LOCKED`,
		asOf, limit,
	)
	if err != nil {
		return nil, database.MapError("find due borrowings", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[borrowing.Borrowing])
	if err != nil {
		return nil, database.MapError("find due borrowings", err)
	}
	return items, nil
}

func (t *pgxTx) SaveBorrowings(ctx context.Context, items []*borrowing.Borrowing) error {
	batch := &pgx.Batch{}
	for _, b := range items {
		batch.Queue(`
			INSERT INTO borrowings (
				id, member_id, book_id, borrow_date, due_date, return_date,
				status, fine_amount, notes, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11)`,
			b.ID, b.MemberID, b.BookID, b.BorrowDate, b.DueDate, b.ReturnDate,
			b.Status, b.FineAmount, b.Notes, b.CreatedAt, b.UpdatedAt,
		)
	}
	if err := t.execBatch(ctx, "save borrowings", batch, len(items), nil); err != nil {
		return err
	}
	for _, b := range items {
		b.Version = 1
	}
	return nil
}

func (t *pgxTx) UpdateBorrowings(ctx context.Context, items []*borrowing.Borrowing) error {
	batch := &pgx.Batch{}
	ids := make([]uuid.UUID, len(items))
	for i, b := range items {
		ids[i] = b.ID
		batch.Queue(`
			UPDATE borrowings
			SET due_date = $1, return_date = $2, status = $3, fine_amount = $4,
			    notes = $5, updated_at = $6, version = version + 1
			WHERE id = $7 AND version = $8`,
			b.DueDate, b.ReturnDate, b.Status, b.FineAmount,
			b.Notes, b.UpdatedAt, b.ID, b.Version,
		)
	}
	if err := t.execBatch(ctx, "update borrowings", batch, len(items), ids); err != nil {
		return err
	}
	for _, b := range items {
		b.Version++
	}
	return nil
}

func (t *pgxTx) UpdateBooks(ctx context.Context, books []*book.Book) error {
	batch := &pgx.Batch{}
	ids := make([]uuid.UUID, len(books))
	for i, b := range books {
		ids[i] = b.ID
		batch.Queue(`
			UPDATE books
			SET available = $1, borrow_count = $2, updated_at = $3, version = version + 1
			WHERE id = $4 AND version = $5`,
			b.Available, b.BorrowCount, b.UpdatedAt, b.ID, b.Version,
		)
	}
	if err := t.execBatch(ctx, "update books", batch, len(books), ids); err != nil {
		return err
	}
	for _, b := range books {
		b.Version++
	}
	return nil
}

func (t *pgxTx) UpdateMembers(ctx context.Context, members []*member.Member) error {
	batch := &pgx.Batch{}
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.ID
		batch.Queue(`
			UPDATE members
			SET active_borrowings = $1, total_borrowed = $2, updated_at = $3, version = version + 1
			WHERE id = $4 AND version = $5`,
			m.ActiveBorrowings, m.TotalBorrowed, m.UpdatedAt, m.ID, m.Version,
		)
	}
	if err := t.execBatch(ctx, "update members", batch, len(members), ids); err != nil {
		return err
	}
	for _, m := range members {
		m.Version++
	}
	return nil
}

// execBatch runs n queued statements. When ids is set every statement must
// touch exactly one row; zero means the version moved under us.
func (t *pgxTx) execBatch(ctx context.Context, op string, batch *pgx.Batch, n int, ids []uuid.UUID) error {
	if n == 0 {
		return nil
	}
	results := t.tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < n; i++ {
		tag, err := results.Exec()
		if err != nil {
			return database.MapError(op, err)
		}
		if ids != nil && tag.RowsAffected() != 1 {
			return fmt.Errorf("%w: %s: %s", errs.ErrConcurrentModification, op, ids[i])
		}
	}
	return nil
}
