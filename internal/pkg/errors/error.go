package xerrors

import "errors"

// Common reusable application errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized access")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflict: resource already exists")
	ErrRateLimited   = errors.New("too many requests")
	ErrNotConfigured = errors.New("provider not configured")
)

// ValidationError reports a rejected field with a message meant for the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Required is the common "<Field> is required" validation error.
func Required(field, label string) error {
	return &ValidationError{Field: field, Message: label + " is required"}
}
