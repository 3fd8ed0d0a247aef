// Package apperr defines the sentinel errors shared across shelfmark packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnavailable   = errors.New("backend unavailable")
	ErrInvalidInput  = errors.New("invalid input")
	ErrWrite         = errors.New("write failed")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
)

// Invalid wraps a validation error so that it matches ErrInvalidInput.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
