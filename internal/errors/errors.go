package errors

import (
	"errors"
	"fmt"
)

// Common error types for the ConnectSpace API
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateAccount   = errors.New("user already exists with this email")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")

	// Request errors
	ErrValidation = errors.New("validation error")

	// General errors
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a single invalid request field.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (v *ValidationError) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a field-level validation error
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import
func New(text string) error {
	return errors.New(text)
}
