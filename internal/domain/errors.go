package domain

import (
	"errors"
	"strings"
)

// Authentication and membership errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("username or email already in use")
	ErrIncorrectCode      = errors.New("incorrect code")
)

// Authorization and lookup errors
var (
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ErrValidation is matched by every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError carries field-level messages in form order.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// First returns the message shown to the user.
func (e *ValidationError) First() string {
	if len(e.Messages) == 0 {
		return "Invalid input"
	}
	return e.Messages[0]
}
