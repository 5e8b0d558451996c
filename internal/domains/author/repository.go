package author

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for Author data access operations
type Repository interface {
	Create(ctx context.Context, a *Author) (*Author, error)

	// GetByID returns ErrAuthorNotFound if not exists
	GetByID(ctx context.Context, id uuid.UUID) (*Author, error)

	// List supports name/nationality filtering, sorting and paging
	List(ctx context.Context, filter AuthorFilter) ([]Author, int64, error)

	// Update writes the author if the stored version equals currentVersion
	// Errors: ErrVersionMismatch, ErrAuthorNotFound
	Update(ctx context.Context, a *Author, currentVersion int) (*Author, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// GetBookCount counts rows in book_authors for the author
	GetBookCount(ctx context.Context, authorID uuid.UUID) (int, error)
}
