package borrowing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the read side of borrowings, used for listings and reports.
// Writes go through Gateway.
type Repository interface {
	// Errors: ErrBorrowingNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*Borrowing, error)

	List(ctx context.Context, filter BorrowingFilter) ([]Borrowing, int64, error)

	// ListOverdue returns open borrowings due before asOf, oldest first.
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]OverdueItem, error)

	// CountByStatus returns the number of borrowings per status.
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// TotalFines sums fine_amount over all borrowings.
	TotalFines(ctx context.Context) (decimal.Decimal, error)
}
