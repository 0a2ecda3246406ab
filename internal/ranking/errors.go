package ranking

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input: blank fields, oversized ballots, unknown top counts.
	ErrValidation = errors.New("ranking: validation failed")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("ranking: not found")
	// ErrDuplicate marks a unique key collision reported by a repository.
	ErrDuplicate = errors.New("ranking: duplicate record")
	// ErrSuggestionsClosed marks a suggestion submitted while the period does not accept suggestions.
	ErrSuggestionsClosed = errors.New("ranking: suggestions closed")
	// ErrVotingClosed marks a ballot cast while voting is not open.
	ErrVotingClosed = errors.New("ranking: voting closed")
	// ErrInvalidCandidate marks a ballot naming a DJ that is unknown, unapproved or from another country.
	ErrInvalidCandidate = errors.New("ranking: invalid candidate")
	// ErrInvalidRecord marks a stored document that fails schema validation.
	ErrInvalidRecord = errors.New("ranking: invalid stored record")
	// ErrStore marks an underlying storage failure. It is never retried.
	ErrStore = errors.New("ranking: store failure")

	errMissingRepository = errors.New("repository is required")
	errMissingIDProvider = errors.New("id provider is required")
)

// ServiceError carries a stable "<operation>.<reason>" code alongside the cause.
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

// Code returns the operation scoped error code.
func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storeFailure(err error) error {
	if errors.Is(err, ErrStore) {
		return err
	}
	return errors.Join(ErrStore, err)
}
