package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorKind classifies pipeline failures so callers can render specific
// guidance and map them to HTTP statuses. The kind travels with the error as
// a machine-readable discriminator.
type ErrorKind string

const (
	ErrKindValidation           ErrorKind = "validation_error"
	ErrKindProviderSubmission   ErrorKind = "provider_submission_error"
	ErrKindContentPolicy        ErrorKind = "content_policy_violation"
	ErrKindPollTimeout          ErrorKind = "poll_timeout"
	ErrKindStorageWrite         ErrorKind = "storage_write_error"
	ErrKindSecondaryPersistence ErrorKind = "secondary_persistence_error"
	ErrKindInternal             ErrorKind = "internal_error"
)

// PipelineError is the classified failure of a pipeline phase.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error without losing the chain.
func WrapError(kind ErrorKind, err error, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from an error chain. Unclassified
// errors report ErrKindInternal.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrKindInternal
}
