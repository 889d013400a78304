package service

import (
	"errors"

	"github.com/templui/claimguard/internal/access"
	"github.com/templui/claimguard/internal/validation"
)

var (
	ErrValidation   = validation.ErrInvalid
	ErrForbidden    = access.ErrForbidden
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

func invalid(field, message string) error {
	return &validation.Error{Field: field, Message: message}
}
