// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned both for missing ids and for ids owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable wraps every storage failure. Callers may retry.
	ErrUnavailable = errors.New("storage unavailable")
	ErrValidation  = errors.New("validation failed")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AsValidation extracts the field-level validation error, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
