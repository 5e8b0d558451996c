package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"library-backend/internal/shared/errs"
)

// FieldError is one failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries every failed constraint of a request.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Field == "" {
			parts[i] = f.Message
			continue
		}
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", errs.ErrInvalidRequest.Error(), strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return errs.ErrInvalidRequest
}

// NotNilUUID rejects the zero uuid.
var NotNilUUID = ozzo.By(func(value interface{}) error {
	switch id := value.(type) {
	case uuid.UUID:
		if id == uuid.Nil {
			return errors.New("must be a valid id")
		}
	case *uuid.UUID:
		if id == nil || *id == uuid.Nil {
			return errors.New("must be a valid id")
		}
	}
	return nil
})

// Check runs v's rules and returns the failed (field, message) pairs sorted
// by field path. An empty result means v is valid.
func Check(v ozzo.Validatable) []FieldError {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fields []FieldError
	collect("", err, &fields)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Field < fields[j].Field
	})
	return fields
}

// Validate is Check folded into an error value.
func Validate(v ozzo.Validatable) error {
	fields := Check(v)
	if len(fields) == 0 {
		return nil
	}
	return &Error{Fields: fields}
}

// FieldsOf extracts field errors from err, if it carries any.
func FieldsOf(err error) []FieldError {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Fields
	}
	return nil
}

func collect(prefix string, err error, out *[]FieldError) {
	var nested ozzo.Errors
	if errors.As(err, &nested) {
		for field, fieldErr := range nested {
			if fieldErr == nil {
				continue
			}
			collect(join(prefix, field), fieldErr, out)
		}
		return
	}
	*out = append(*out, FieldError{Field: prefix, Message: err.Error()})
}

func join(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}
