package member

import (
	"fmt"

	"library-backend/internal/shared/errs"
)

var (
	ErrMemberNotFound            = errs.ErrMemberNotFound
	ErrEmailAlreadyExists        = fmt.Errorf("%w: email already registered", errs.ErrDuplicateKey)
	ErrMemberHasActiveBorrowings = fmt.Errorf("%w: member has active borrowings", errs.ErrHasActiveDependents)
	ErrMemberHasHistory          = fmt.Errorf("%w: member has borrowing history", errs.ErrHasActiveDependents)
	ErrVersionConflict           = fmt.Errorf("%w: member was modified by another request", errs.ErrConcurrentModification)
	ErrInvalidStatus             = fmt.Errorf("%w: invalid member status", errs.ErrInvalidRequest)
	ErrInvalidSort               = fmt.Errorf("%w: invalid sort parameter", errs.ErrInvalidRequest)
)
