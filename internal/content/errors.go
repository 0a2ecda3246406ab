package content

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed post input.
	ErrValidation = errors.New("content: invalid input")
	// ErrNotFound indicates the referenced post does not exist.
	ErrNotFound = errors.New("content: not found")
	// ErrDuplicate indicates a post with the same slug exists.
	ErrDuplicate = errors.New("content: duplicate slug")
	// ErrStore indicates the post store failed.
	ErrStore = errors.New("content: store failure")
)

// ServiceError wraps failures with a stable code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Code exposes the stable error code.
func (e *ServiceError) Code() string {
	if e == nil {
		return ""
	}
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: operation + "." + reason, err: cause}
}
