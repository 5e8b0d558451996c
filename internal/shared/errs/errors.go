package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Error kinds shared by every library domain.
// Domain packages wrap these with more specific sentinels, e.g.
// fmt.Errorf("%w: isbn already registered", ErrDuplicateKey).
var (
	ErrInvalidRequest = errors.New("invalid request")

	// Borrowing lifecycle
	ErrInvalidDueDate      = errors.New("due date is in the past")
	ErrBorrowLimitExceeded = errors.New("borrow limit exceeded")
	ErrMemberNotEligible   = errors.New("member is not eligible to borrow")
	ErrBookUnavailable     = errors.New("book is not available")
	ErrAlreadyReturned     = errors.New("borrowing already returned")
	ErrBorrowingClosed     = errors.New("borrowing is closed")

	// Lookups
	ErrBookNotFound      = errors.New("book not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrAuthorNotFound    = errors.New("author not found")
	ErrBorrowingNotFound = errors.New("borrowing not found")

	// Integrity
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrHasActiveDependents = errors.New("record has active dependents")

	// Storage
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrStorage                = errors.New("storage error")
)

// IDSetError names the identifiers that caused a failure.
type IDSetError struct {
	Kind error
	IDs  []uuid.UUID
}

func (e *IDSetError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), strings.Join(ids, ", "))
}

func (e *IDSetError) Unwrap() error {
	return e.Kind
}

// WithIDs wraps kind with the offending identifiers.
func WithIDs(kind error, ids ...uuid.UUID) error {
	return &IDSetError{Kind: kind, IDs: ids}
}

// IDsOf returns the identifiers carried by err, if any.
func IDsOf(err error) []uuid.UUID {
	var setErr *IDSetError
	if errors.As(err, &setErr) {
		return setErr.IDs
	}
	return nil
}

// Storage wraps a low-level failure as ErrStorage, keeping the cause in the chain.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrConcurrentModification) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// IsRetryable reports whether the caller may retry the operation unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

type mapping struct {
	kind   error
	code   string
	status int
}

// Order matters: the first matching kind wins.
var mappings = []mapping{
	{ErrInvalidRequest, "INVALID_REQUEST", http.StatusBadRequest},
	{ErrInvalidDueDate, "INVALID_DUE_DATE", http.StatusBadRequest},
	{ErrBorrowLimitExceeded, "BORROW_LIMIT_EXCEEDED", http.StatusUnprocessableEntity},
	{ErrMemberNotEligible, "MEMBER_NOT_ELIGIBLE", http.StatusUnprocessableEntity},
	{ErrBookUnavailable, "BOOK_UNAVAILABLE", http.StatusConflict},
	{ErrAlreadyReturned, "ALREADY_RETURNED", http.StatusConflict},
	{ErrBorrowingClosed, "BORROWING_CLOSED", http.StatusConflict},
	{ErrBookNotFound, "BOOK_NOT_FOUND", http.StatusNotFound},
	{ErrMemberNotFound, "MEMBER_NOT_FOUND", http.StatusNotFound},
	{ErrAuthorNotFound, "AUTHOR_NOT_FOUND", http.StatusNotFound},
	{ErrBorrowingNotFound, "BORROWING_NOT_FOUND", http.StatusNotFound},
	{ErrDuplicateKey, "DUPLICATE_KEY", http.StatusConflict},
	{ErrHasActiveDependents, "HAS_ACTIVE_DEPENDENTS", http.StatusConflict},
	{ErrConcurrentModification, "CONCURRENT_MODIFICATION", http.StatusConflict},
	{ErrStorage, "STORAGE_ERROR", http.StatusServiceUnavailable},
}

// ToErrorCode converts an error to its API error code.
func ToErrorCode(err error) string {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m.code
		}
	}
	return "INTERNAL_ERROR"
}

// ToHTTPStatus converts an error to its HTTP status code.
func ToHTTPStatus(err error) int {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
