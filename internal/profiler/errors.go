package profiler

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed matches every *GenerationFailure.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidOutput means the reply could not be parsed into the declared schema.
	ErrInvalidOutput = errors.New("invalid model output")

	// ErrEmptyResponse means the model returned no candidates or no text.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrTimeout means the call exceeded the configured timeout.
	ErrTimeout = errors.New("model request timed out")

	// ErrRetryExhausted means every attempt failed with a transient error.
	ErrRetryExhausted = errors.New("model retry attempts exhausted")
)

// GenerationFailure is returned by the Service when a model call or the
// parsing of its reply fails.
type GenerationFailure struct {
	Task     Task
	Attempts int
	Cause    error
}

func (f *GenerationFailure) Error() string {
	return fmt.Sprintf("%s generation failed: %v", f.Task, f.Cause)
}

func (f *GenerationFailure) Unwrap() error {
	return f.Cause
}

func (f *GenerationFailure) Is(target error) bool {
	return target == ErrGenerationFailed
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying. Generators use it for rate limits,
// server errors and network failures.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// ErrorCode maps an error to the short code reported in call events.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	case errors.Is(err, ErrEmptyResponse):
		return "EMPTY_RESPONSE"
	case errors.Is(err, ErrRetryExhausted):
		return "RETRY_EXHAUSTED"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}
