// Package services holds the application operations behind the HTTP API and the CLI.
package services

import (
	"errors"
	"fmt"
)

// Client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidSummaryField = errors.New("field must be 'total_completed' or 'total_failed'")
	ErrInvalidIncrement    = errors.New("increment must be between 1 and 100")

	// ErrUnauthorized means the user has no usable publishing credentials (401).
	ErrUnauthorized = errors.New("could not find user credentials, please log in again")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSummaryField) ||
		errors.Is(err, ErrInvalidIncrement)
}

// IsUnauthorized checks if an error should return HTTP 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
