package service

import (
	"errors"
	"fmt"

	"library-backend/internal/domains/borrowing"
	"library-backend/internal/shared/errs"
)

var (
	errDuplicateIDs     = errors.New("must not contain duplicates")
	errInvalidExtension = fmt.Errorf("%w: extension must be between 1 and %d days", errs.ErrInvalidRequest, borrowing.MaxExtensionDays)
	errNotesTooLong     = fmt.Errorf("%w: notes exceed %d characters", errs.ErrInvalidRequest, borrowing.MaxNotesLength)
)
