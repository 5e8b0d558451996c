package member

import (
	"context"

	"github.com/google/uuid"
)

// Service defines business operations on members.
type Service interface {
	// Create registers an ACTIVE member with zeroed counters.
	// Errors: errs.ErrInvalidRequest, ErrEmailAlreadyExists
	Create(ctx context.Context, req *CreateMemberRequest) (*Member, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)

	List(ctx context.Context, filter MemberFilter) ([]Member, int64, error)

	Eligible(ctx context.Context, limit int) ([]Member, error)

	MostActive(ctx context.Context, limit int) ([]Member, error)

	// Update rejects an email already used by another member.
	// Errors: ErrMemberNotFound, ErrVersionConflict, ErrEmailAlreadyExists
	Update(ctx context.Context, id uuid.UUID, req *UpdateMemberRequest) (*Member, error)

	ChangeStatus(ctx context.Context, id uuid.UUID, req *ChangeStatusRequest) (*Member, error)

	// Delete removes a member who never borrowed; others can be set INACTIVE.
	// Errors: ErrMemberNotFound, ErrMemberHasActiveBorrowings, ErrMemberHasHistory
	Delete(ctx context.Context, id uuid.UUID) error
}
