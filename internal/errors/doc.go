// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// test execution, pool shutdown, etc.) and for carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types that carry a cause implement the Unwrap() method to support
// errors.Is() and errors.As(). Types without a cause implement Is() against
// their sentinel so callers can match on the class without a type assertion.
package apperrors
