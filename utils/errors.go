package utils

import (
	"errors"
	"fmt"
)

// ValidationError marks input that can never succeed against the lock
// service: no remote call is attempted for it.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RemoteError is any lock-service outcome not classified as success,
// duplicate, or not-found. The idempotency record is left untouched so a
// re-delivered event can retry cleanly.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func NewRemoteError(op string, statusCode int, message string) *RemoteError {
	return &RemoteError{Op: op, StatusCode: statusCode, Message: message}
}

func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

var (
	ErrMissingPropertyID = NewValidationError("Missing property id.")
	ErrNoLockMapping     = NewValidationError("No lock mapping found for property.")
	ErrNoDerivableCode   = NewValidationError("Missing guest phone number and booking id.")
	ErrMissingDates      = NewValidationError("Missing check-in or check-out dates.")
	ErrInvalidDateFormat = NewValidationError("Invalid date format.")
	ErrInvalidWindow     = NewValidationError("Checkout must be after checkin.")
)
