package diary

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity is returned when a close requests zero or a negative number of units.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInsufficientOpenQuantity is returned when a close requests more units than remain open.
	ErrInsufficientOpenQuantity = errors.New("insufficient open quantity")
	// ErrPositionNotFound is returned by books when a position ID is unknown.
	ErrPositionNotFound = errors.New("position not found")
)

// ValidationError reports a malformed input field. Inputs are rejected before
// any computation happens.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err contains a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
