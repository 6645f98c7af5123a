// Package errors provides structured error types for feedsolve.
//
// Errors carry a machine-readable [Code] so callers (the CLI, an external
// solver process, tests) can distinguish input errors from collaborator
// failures without string matching:
//
//   - INVALID_*: malformed user input (requirements, versions, ranges, feeds)
//   - *_NOT_FOUND: a feed or implementation could not be located
//   - NETWORK_ERROR, TRUST_ERROR, PACKAGE_MANAGER, STORE_ERROR: collaborator failures
//   - NO_SOLUTION: the solver proved no consistent selection exists
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidVersion, "invalid version %q", raw)
//	if errors.Is(err, errors.ErrCodeInvalidVersion) {
//	    // report to the user, do not retry
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch feed %s", uri)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidVersion Code = "INVALID_VERSION"
	ErrCodeInvalidRange   Code = "INVALID_RANGE"
	ErrCodeInvalidFeed    Code = "INVALID_FEED"
	ErrCodeInvalidArch    Code = "INVALID_ARCH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFeedNotFound Code = "FEED_NOT_FOUND"

	// Collaborator failures
	ErrCodeNetwork        Code = "NETWORK_ERROR"
	ErrCodeTrust          Code = "TRUST_ERROR"
	ErrCodePackageManager Code = "PACKAGE_MANAGER"
	ErrCodeStore          Code = "STORE_ERROR"

	// Solver outcomes surfaced as errors by convenience wrappers
	ErrCodeNoSolution Code = "NO_SOLUTION"
	ErrCodeCanceled   Code = "CANCELED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// The outermost *Error wins, so wrapping a network failure as FEED_NOT_FOUND
// reports FEED_NOT_FOUND.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInputError reports whether err was caused by malformed user input.
// Input errors are reported immediately and never retried.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidVersion, ErrCodeInvalidRange, ErrCodeInvalidArch:
		return true
	}
	return false
}
