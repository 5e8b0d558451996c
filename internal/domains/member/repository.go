package member

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Errors: ErrEmailAlreadyExists
	Create(ctx context.Context, m *Member) (*Member, error)

	// Errors: ErrMemberNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)

	// ExistsByEmail ignores excludeID (uuid.Nil for none).
	ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)

	List(ctx context.Context, filter MemberFilter) ([]Member, int64, error)

	// Eligible lists ACTIVE members under the borrow ceiling.
	Eligible(ctx context.Context, ceiling, limit int) ([]Member, error)

	// MostActive orders by total_borrowed descending.
	MostActive(ctx context.Context, limit int) ([]Member, error)

	// Errors: ErrVersionConflict, ErrMemberNotFound, ErrEmailAlreadyExists
	Update(ctx context.Context, m *Member, currentVersion int) (*Member, error)

	// Delete refuses members referenced by any borrowing.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountActiveBorrowings counts BORROWED and OVERDUE rows in borrowings.
	CountActiveBorrowings(ctx context.Context, id uuid.UUID) (int, error)
}
