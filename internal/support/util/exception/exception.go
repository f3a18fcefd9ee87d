// Package exception provides the custom error type and classification helpers used
// throughout the aircast pipeline. It standardizes errors raised at I/O boundaries
// so that callers can decide between per-city isolation and run abort.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Sentinel errors for the pipeline's error taxonomy. They are wrapped through
// PipelineError so callers classify failures with errors.Is.
var (
	// ErrConfiguration indicates a missing or malformed configuration resource. Fatal to the run.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstreamRequest indicates a non-success HTTP status from the metadata API.
	ErrUpstreamRequest = errors.New("upstream request error")
	// ErrStorageRead indicates that a stored artifact could not be read back.
	// Callers catch it, log, and skip the affected city.
	ErrStorageRead = errors.New("storage read error")
)

// PipelineError is the custom error type raised by pipeline components.
// It holds the module where the error occurred, a message, the wrapped original
// error, and flags indicating whether it is retryable or skippable.
type PipelineError struct {
	// Module indicates the component where the error occurred (e.g., "openaq", "archive", "prompt").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether this error is retryable.
	isRetryable bool
	// isSkippable indicates whether this error may be skipped without aborting the run.
	isSkippable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewPipelineError creates a new PipelineError instance.
// module: The component where the error occurred.
// message: The error message.
// originalErr: The original error to wrap (may be nil).
// isSkippable: Whether this error may be skipped.
// isRetryable: Whether this error is retryable.
func NewPipelineError(module, message string, originalErr error, isSkippable, isRetryable bool) *PipelineError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &PipelineError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  string(buf[:n]),
	}
}

// NewConfigurationError creates a PipelineError classified as ErrConfiguration.
func NewConfigurationError(module, message string, originalErr error) *PipelineError {
	return NewPipelineError(module, message, wrapSentinel(ErrConfiguration, originalErr), false, false)
}

// NewUpstreamRequestError creates a PipelineError classified as ErrUpstreamRequest.
// retryable should be set for server-side (5xx) failures.
func NewUpstreamRequestError(module, message string, originalErr error, retryable bool) *PipelineError {
	return NewPipelineError(module, message, wrapSentinel(ErrUpstreamRequest, originalErr), false, retryable)
}

// NewStorageReadError creates a PipelineError classified as ErrStorageRead.
// Storage read failures are skippable: the affected city is logged and skipped.
func NewStorageReadError(module, message string, originalErr error) *PipelineError {
	return NewPipelineError(module, message, wrapSentinel(ErrStorageRead, originalErr), true, false)
}

func wrapSentinel(sentinel, originalErr error) error {
	if originalErr != nil {
		return errors.Join(sentinel, originalErr)
	}
	return sentinel
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *PipelineError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap / errors.Is.
func (e *PipelineError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *PipelineError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error may be skipped without aborting the run.
func (e *PipelineError) IsSkippable() bool {
	return e.isSkippable
}

// IsPipelineError determines if the given error is of type PipelineError.
func IsPipelineError(err error) bool {
	if err == nil {
		return false
	}
	var pe *PipelineError
	return errors.As(err, &pe)
}

// IsSkippable reports whether an error may be skipped without aborting the run.
// PipelineError flags take precedence; any other error is treated as fatal.
func IsSkippable(err error) bool {
	if err == nil {
		return false
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.IsSkippable()
	}
	return false
}

// ExtractErrorMessage extracts the error message string from an error.
// For PipelineError it returns the cleaner Message field.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
