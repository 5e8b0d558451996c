package book

import (
	"context"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Service defines business operations on books.
type Service interface {
	// Create validates the request and stores an available book.
	// Errors: errs.ErrInvalidRequest, ErrISBNAlreadyExists
	Create(ctx context.Context, req *CreateBookRequest) (*Book, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)

	List(ctx context.Context, filter BookFilter) ([]Book, int64, error)

	TopBorrowed(ctx context.Context, limit int) ([]Book, error)

	// Update applies a partial update with optimistic locking.
	// Errors: ErrBookNotFound, ErrVersionConflict, ErrISBNAlreadyExists
	Update(ctx context.Context, id uuid.UUID, req *UpdateBookRequest) (*Book, error)

	// Delete removes a book that was never lent.
	// Errors: ErrBookNotFound, ErrBookHasActiveBorrowings, ErrBookHasHistory
	Delete(ctx context.Context, id uuid.UUID) error

	// Export renders the filtered catalogue as a spreadsheet.
	Export(ctx context.Context, filter BookFilter) (*excelize.File, error)
}
