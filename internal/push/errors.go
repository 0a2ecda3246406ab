package push

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a malformed subscription payload.
	ErrValidation = errors.New("push: invalid subscription")
	// ErrStore indicates the subscription store failed.
	ErrStore = errors.New("push: store failure")
	// ErrNotFound is returned by repositories for unknown endpoints.
	ErrNotFound = errors.New("push: subscription not found")
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
