package book

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for books.
type Repository interface {
	// Create inserts the book and its author links in one transaction.
	// Errors: ErrISBNAlreadyExists, ErrUnknownAuthor
	Create(ctx context.Context, b *Book) (*Book, error)

	// GetByID reads through the cache.
	// Errors: ErrBookNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)

	// ExistsByISBN checks ISBN uniqueness, ignoring excludeID (uuid.Nil for none).
	ExistsByISBN(ctx context.Context, isbn string, excludeID uuid.UUID) (bool, error)

	List(ctx context.Context, filter BookFilter) ([]Book, int64, error)

	// TopBorrowed orders by borrow_count descending.
	TopBorrowed(ctx context.Context, limit int) ([]Book, error)

	// Update writes b if the stored version still equals currentVersion.
	// Errors: ErrVersionConflict, ErrBookNotFound, ErrISBNAlreadyExists
	Update(ctx context.Context, b *Book, currentVersion int) (*Book, error)

	// Delete refuses books referenced by any borrowing.
	Delete(ctx context.Context, id uuid.UUID) error

	// HasActiveBorrowings reports a BORROWED or OVERDUE borrowing of the book.
	HasActiveBorrowings(ctx context.Context, id uuid.UUID) (bool, error)
}
