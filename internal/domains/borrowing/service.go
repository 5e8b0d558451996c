package borrowing

import (
	"context"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Service is the borrowing use case layer. Mutations retry on
// ErrConcurrentModification and invalidate cached books and members.
type Service interface {
	// Borrow lends every requested book to the member or none of them.
	// Errors: ErrInvalidRequest, ErrInvalidDueDate, ErrMemberNotFound,
	// ErrBorrowLimitExceeded, ErrMemberNotEligible, ErrBookNotFound,
	// ErrBookUnavailable
	Borrow(ctx context.Context, req *BorrowRequest) ([]*Borrowing, error)

	// Return closes every listed borrowing or none of them.
	// Errors: ErrInvalidRequest, ErrBorrowingNotFound, ErrAlreadyReturned,
	// ErrBorrowingClosed
	Return(ctx context.Context, req *ReturnRequest) ([]*Borrowing, error)

	Extend(ctx context.Context, id uuid.UUID, req *ExtendRequest) (*Borrowing, error)
	MarkLost(ctx context.Context, id uuid.UUID, req *NotesRequest) (*Borrowing, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, req *NotesRequest) (*Borrowing, error)

	// SweepOverdue flags due borrowings as OVERDUE and returns how many changed.
	SweepOverdue(ctx context.Context) (int, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Borrowing, error)
	List(ctx context.Context, filter BorrowingFilter) ([]Borrowing, int64, error)
	ListOverdue(ctx context.Context, limit int) ([]OverdueItem, error)
	Stats(ctx context.Context) (*Stats, error)

	// OverdueReport renders the overdue listing as a spreadsheet.
	OverdueReport(ctx context.Context) (*excelize.File, error)
}
