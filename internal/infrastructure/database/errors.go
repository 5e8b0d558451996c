package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"library-backend/internal/shared/errs"
)

// PostgreSQL error codes mapped to library error kinds.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
)

// MapError translates a driver error into an error kind from errs, keeping
// the cause in the chain. Errors that already carry a kind pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errs.Storage(op, err)
	}

	if code, constraint, msg, ok := sqlState(err); ok {
		switch code {
		case CodeUniqueViolation:
			return fmt.Errorf("%w: %s: %s", errs.ErrDuplicateKey, op, constraint)
		case CodeForeignKeyViolation:
			return fmt.Errorf("%w: %s: %s", errs.ErrHasActiveDependents, op, constraint)
		case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
			return fmt.Errorf("%w: %s: %s", errs.ErrConcurrentModification, op, msg)
		}
	}

	for _, kind := range []error{
		errs.ErrInvalidRequest, errs.ErrBookNotFound, errs.ErrMemberNotFound,
		errs.ErrAuthorNotFound, errs.ErrBorrowingNotFound, errs.ErrDuplicateKey,
		errs.ErrHasActiveDependents, errs.ErrConcurrentModification, errs.ErrStorage,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return errs.Storage(op, err)
}

// IsUniqueViolation reports a 23505 on the named constraint, or on any
// constraint when name is empty.
func IsUniqueViolation(err error, name string) bool {
	code, constraint, _, ok := sqlState(err)
	if !ok || code != CodeUniqueViolation {
		return false
	}
	return name == "" || constraint == name
}

// sqlState extracts the SQLSTATE from either driver: pgx for the pool,
// lib/pq for the sqlx reporting store.
func sqlState(err error) (code, constraint, msg string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, pgErr.Message, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, pqErr.Message, true
	}
	return "", "", "", false
}
