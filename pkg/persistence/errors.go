package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialsNotFound indicates the user never stored publishing credentials.
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrInvalidSummaryField indicates a job summary counter that does not exist.
	ErrInvalidSummaryField = errors.New("invalid summary field")

	// ErrInvalidPost indicates a post without platform or content.
	ErrInvalidPost = errors.New("invalid post")

	// ErrMissingUserID indicates an operation scoped to a user was called without one.
	ErrMissingUserID = errors.New("missing user id")
)

// UserError wraps a storage failure with the operation and the user it concerned.
type UserError struct {
	Op     string
	UserID string
	Err    error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s operation failed for user %s: %v", e.Op, e.UserID, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func (e *UserError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewUserError(op, userID string, err error) *UserError {
	return &UserError{Op: op, UserID: userID, Err: err}
}

func IsCredentialsNotFound(err error) bool {
	return errors.Is(err, ErrCredentialsNotFound)
}

func IsInvalidSummaryField(err error) bool {
	return errors.Is(err, ErrInvalidSummaryField)
}
