package validation

import (
	"errors"
	"fmt"
)

// ErrInvalid is the sentinel every validation failure unwraps to.
var ErrInvalid = errors.New("invalid input")

// Error describes a rejected field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

func fieldError(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}
