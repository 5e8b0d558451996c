package author

import (
	"fmt"

	"library-backend/internal/shared/errs"
)

var (
	ErrAuthorNotFound  = errs.ErrAuthorNotFound
	ErrAuthorHasBooks  = fmt.Errorf("%w: author has linked books", errs.ErrHasActiveDependents)
	ErrVersionMismatch = fmt.Errorf("%w: author version mismatch", errs.ErrConcurrentModification)
	ErrInvalidSort     = fmt.Errorf("%w: invalid sort parameter", errs.ErrInvalidRequest)
)
