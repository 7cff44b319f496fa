package source

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when a source cannot be reached or
	// times out. Transient: the adapter retries before surfacing it.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidResponseShape is returned when the upstream payload cannot
	// be normalized into postings. Not retried.
	ErrInvalidResponseShape = errors.New("invalid response shape")
)

// SourceError wraps an adapter failure with the source name and whether
// the failure was transient.
type SourceError struct {
	Source    string
	Err       error
	Retryable bool
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %s", e.Source, e.Err.Error())
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewUnavailable wraps err as a retryable ErrSourceUnavailable for the
// given source.
func NewUnavailable(sourceName string, err error) error {
	return &SourceError{
		Source:    sourceName,
		Err:       fmt.Errorf("%w: %w", ErrSourceUnavailable, err),
		Retryable: true,
	}
}

// NewInvalidShape wraps err as a non-retryable ErrInvalidResponseShape for
// the given source.
func NewInvalidShape(sourceName string, err error) error {
	return &SourceError{
		Source:    sourceName,
		Err:       fmt.Errorf("%w: %w", ErrInvalidResponseShape, err),
		Retryable: false,
	}
}
