package protocol

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError marks a capability failure that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError marks a capability failure that must not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

func NewFatalError(err error) error {
	return &FatalError{err: err}
}

func IsTransient(err error) bool {
	var transient *TransientError

	return errors.As(err, &transient)
}

func IsFatal(err error) bool {
	var fatal *FatalError

	return errors.As(err, &fatal)
}

// StatusError classifies a non-2xx answer of an HTTP API. Rate limiting and
// server errors are transient, everything else is fatal.
func StatusError(service string, statusCode int, body string) error {
	if len(body) > 200 {
		body = body[:200] + "..."
	}

	err := fmt.Errorf("%s API error (status %d): %s", service, statusCode, body)

	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusRequestTimeout,
		statusCode >= http.StatusInternalServerError:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
