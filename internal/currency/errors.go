package currency

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed input such as an unknown code format or a non-finite amount.
	ErrValidation = errors.New("currency: invalid input")
	// ErrExternalAPI indicates the rate provider failed and no cached rates exist.
	ErrExternalAPI = errors.New("currency: external api failure")
	// ErrUnknownCurrency indicates a code missing from the current rate table.
	ErrUnknownCurrency = errors.New("currency: unknown currency")
	// ErrNotFound is returned by stores when no rates are cached for a base.
	ErrNotFound = errors.New("currency: rates not cached")

	errMissingStore   = errors.New("currency: store is required")
	errMissingFetcher = errors.New("currency: fetcher is required")
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
