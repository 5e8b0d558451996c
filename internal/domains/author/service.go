package author

import (
	"context"

	"github.com/google/uuid"
)

// Service defines business logic operations for Author domain
type Service interface {
	// Create validates and stores a new author
	// Errors: errs.ErrInvalidRequest
	Create(ctx context.Context, req *CreateAuthorRequest) (*Author, error)

	// Errors: ErrAuthorNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*Author, error)

	// GetWithBookCount retrieves author with the number of linked books
	GetWithBookCount(ctx context.Context, id uuid.UUID) (*Author, int, error)

	List(ctx context.Context, filter AuthorFilter) ([]Author, int64, error)

	// Update requires the current version (optimistic locking)
	// Errors: ErrAuthorNotFound, ErrVersionMismatch
	Update(ctx context.Context, id uuid.UUID, req *UpdateAuthorRequest) (*Author, error)

	// Delete is refused while any book is linked to the author
	// Errors: ErrAuthorNotFound, ErrAuthorHasBooks
	Delete(ctx context.Context, id uuid.UUID) error
}
