package borrowing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/member"
)

// Tx is the unit of work handed to the engine. Reads lock the rows they
// return until the transaction ends. Every Update* call checks the version
// the record was read with and bumps Version on the passed record.
type Tx interface {
	// FindBooksByIDs returns the books that exist, in no particular order.
	FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]*book.Book, error)

	// Errors: ErrMemberNotFound
	FindMemberByID(ctx context.Context, id uuid.UUID) (*member.Member, error)

	// FindBorrowingsByIDs returns the borrowings that exist, in no particular order.
	FindBorrowingsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Borrowing, error)

	// CountActiveBorrowings counts BORROWED and OVERDUE rows of the member.
	CountActiveBorrowings(ctx context.Context, memberID uuid.UUID) (int, error)

	// FindDueBorrowings returns up to limit BORROWED rows due before asOf.
	FindDueBorrowings(ctx context.Context, asOf time.Time, limit int) ([]*Borrowing, error)

	SaveBorrowings(ctx context.Context, borrowings []*Borrowing) error
	UpdateBorrowings(ctx context.Context, borrowings []*Borrowing) error
	UpdateBooks(ctx context.Context, books []*book.Book) error
	UpdateMembers(ctx context.Context, members []*member.Member) error
}

// TxFunc runs inside WithinTx. Returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, tx Tx) error

// Gateway is the transactional boundary of the borrowing engine.
type Gateway interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}
