package tracking

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced site, event, letter, or attachment
	// does not exist.
	ErrNotFound = errors.New("tracking: not found")
	// ErrConflict indicates a uniqueness violation, typically two records
	// racing for the same sequence number.
	ErrConflict = errors.New("tracking: conflict")
)

// ValidationError reports a constraint violation on a specific input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tracking: validation failed on %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ServiceError wraps a failure with a stable operation.reason code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable operation.reason identifier.
func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}
