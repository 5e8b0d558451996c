package borrowing

import (
	"fmt"

	"library-backend/internal/shared/errs"
)

// Borrowing lifecycle error kinds. They alias the shared kinds so book and
// member services can report the same conditions without importing this
// package.
var (
	ErrInvalidRequest         = errs.ErrInvalidRequest
	ErrInvalidDueDate         = errs.ErrInvalidDueDate
	ErrBorrowLimitExceeded    = errs.ErrBorrowLimitExceeded
	ErrMemberNotFound         = errs.ErrMemberNotFound
	ErrMemberNotEligible      = errs.ErrMemberNotEligible
	ErrBookNotFound           = errs.ErrBookNotFound
	ErrBorrowingNotFound      = errs.ErrBorrowingNotFound
	ErrBookUnavailable        = errs.ErrBookUnavailable
	ErrAlreadyReturned        = errs.ErrAlreadyReturned
	ErrBorrowingClosed        = errs.ErrBorrowingClosed
	ErrDuplicateKey           = errs.ErrDuplicateKey
	ErrHasActiveDependents    = errs.ErrHasActiveDependents
	ErrConcurrentModification = errs.ErrConcurrentModification
	ErrStorage                = errs.ErrStorage
)

type IDSetError = errs.IDSetError

var (
	IsRetryable  = errs.IsRetryable
	ToErrorCode  = errs.ToErrorCode
	ToHTTPStatus = errs.ToHTTPStatus
)

var (
	ErrInvalidStatus = fmt.Errorf("%w: invalid borrowing status", errs.ErrInvalidRequest)
	ErrInvalidFilter = fmt.Errorf("%w: invalid id in filter", errs.ErrInvalidRequest)
)
