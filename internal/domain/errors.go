package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a missing or malformed request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// LocationResolutionError is returned when a free-text location cannot be geocoded
type LocationResolutionError struct {
	Location string
	Err      error
}

func (e *LocationResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not geocode location %q: %v", e.Location, e.Err)
	}
	return fmt.Sprintf("could not geocode location %q", e.Location)
}

func (e *LocationResolutionError) Unwrap() error {
	return e.Err
}
