package book

import (
	"fmt"

	"library-backend/internal/shared/errs"
)

var (
	ErrBookNotFound            = errs.ErrBookNotFound
	ErrISBNAlreadyExists       = fmt.Errorf("%w: isbn already registered", errs.ErrDuplicateKey)
	ErrBookHasActiveBorrowings = fmt.Errorf("%w: book has active borrowings", errs.ErrHasActiveDependents)
	ErrBookHasHistory          = fmt.Errorf("%w: book has borrowing history", errs.ErrHasActiveDependents)
	ErrUnknownAuthor           = fmt.Errorf("%w: unknown author", errs.ErrInvalidRequest)
	ErrVersionConflict         = fmt.Errorf("%w: book was modified by another request", errs.ErrConcurrentModification)
	ErrInvalidSort             = fmt.Errorf("%w: invalid sort parameter", errs.ErrInvalidRequest)
)
