package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates every dispatched test passed.
	ExitErrorGeneric  = 1   // Indicates test failures, errors or a generic error.
	ExitErrorTimeout  = 2   // Indicates the pool drain ceiling was exceeded.
	ExitErrorConfig   = 4   // Indicates a configuration or manifest error.
	ExitErrorCanceled = 130 // Indicates the run was interrupted (e.g., SIGINT).
)

// Sentinel errors for the error classes of the orchestrator. Typed errors
// below match these through their Is method.
var (
	// ErrMissingStartRecord is returned when a duration is requested for an
	// identifier whose start was never recorded.
	ErrMissingStartRecord = errors.New("missing start record")
	// ErrDrainTimeout signals that in-flight work outlived the drain ceiling.
	ErrDrainTimeout = errors.New("pool drain timeout")
	// ErrInterruptedWait signals that waiting for the drain was interrupted.
	ErrInterruptedWait = errors.New("interrupted while waiting for drain")
	// ErrPoolNotAccepting is returned by a pool that has left the Accepting state.
	ErrPoolNotAccepting = errors.New("worker pool is not accepting work")
	// ErrNilSuite is returned when a dispatch is requested without a suite.
	ErrNilSuite = errors.New("suite is nil")
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// MissingStartRecordError is returned by the duration tracker when the end of
// a test is observed without a matching start.
type MissingStartRecordError struct {
	// ID is the identifier that had no start timestamp.
	ID string
}

// Error returns a message naming the identifier.
func (e MissingStartRecordError) Error() string {
	return fmt.Sprintf("no start record for %q", e.ID)
}

// Is reports whether target is ErrMissingStartRecord.
func (e MissingStartRecordError) Is(target error) bool { return target == ErrMissingStartRecord }

// TestExecutionError wraps an unexpected error or recovered panic raised while
// a test executed. It is recorded on the test's own result and never
// propagated to the worker that ran the test.
type TestExecutionError struct {
	// Test is the display name of the test that raised the error.
	Test string
	// Cause is the underlying error.
	Cause error
}

// Error returns the error message from the underlying cause, prefixed with
// the test name.
func (e TestExecutionError) Error() string {
	return fmt.Sprintf("test %q: %v", e.Test, e.Cause)
}

// Unwrap returns the original wrapped error.
func (e TestExecutionError) Unwrap() error { return e.Cause }

// NewPanicError converts a value recovered from a panic into a
// TestExecutionError. Errors are wrapped as-is so errors.Is still sees them.
func NewPanicError(test string, recovered any) error {
	cause, ok := recovered.(error)
	if !ok {
		cause = fmt.Errorf("%v", recovered)
	}
	return TestExecutionError{Test: test, Cause: fmt.Errorf("panic: %w", cause)}
}

// DrainTimeoutError represents a pool whose in-flight work did not finish
// within the drain ceiling. It captures the ceiling that was exceeded.
type DrainTimeoutError struct {
	// Limit is the drain ceiling.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e DrainTimeoutError) Error() string {
	return fmt.Sprintf("in-flight work did not drain within %s", e.Limit)
}

// Is reports whether target is ErrDrainTimeout.
func (e DrainTimeoutError) Is(target error) bool { return target == ErrDrainTimeout }

// InterruptedWaitError represents an interruption received while the pool
// was draining. It is handled exactly like DrainTimeoutError.
type InterruptedWaitError struct {
	// Cause is the reason of the interruption, usually a context error.
	Cause error
}

// Error returns a formatted message describing the interruption.
func (e InterruptedWaitError) Error() string {
	if e.Cause == nil {
		return ErrInterruptedWait.Error()
	}
	return fmt.Sprintf("%s: %v", ErrInterruptedWait, e.Cause)
}

// Unwrap returns the interruption cause.
func (e InterruptedWaitError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrInterruptedWait.
func (e InterruptedWaitError) Is(target error) bool { return target == ErrInterruptedWait }

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// ManifestError reports a suite manifest that could not be read, validated
// or decoded.
type ManifestError struct {
	// Path is the manifest location.
	Path string
	// Cause is the underlying error.
	Cause error
}

// Error returns a message naming the manifest.
func (e ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying error.
func (e ManifestError) Unwrap() error { return e.Cause }

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsForcedShutdown reports whether err is one of the two reasons that force
// a pool into cancellation.
func IsForcedShutdown(err error) bool {
	return errors.Is(err, ErrDrainTimeout) || errors.Is(err, ErrInterruptedWait)
}
