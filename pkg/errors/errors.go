// Package errors provides structured error types for the storyboard canvas.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the TUI, the CLI and the proxy server can react to it without
// string matching:
//   - NODE_*, OPERATION_*, INVALID_LINK: canvas and interaction rejections
//   - INVALID_*: input validation failures
//   - NETWORK_*, TIMEOUT, RATE_LIMITED: remote enrichment failures
//   - INTERNAL_*: unexpected internal errors
//
// None of these codes is fatal. The canvas absorbs them as state (a cleared
// pending flag, an absent result) and the CLI reports them.
//
// # Usage
//
//	err := errors.New(errors.ErrCodePending, "node %d already has an operation in flight", id)
//	if errors.Is(err, errors.ErrCodePending) {
//	    // ignore the repeated trigger
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "search %q", query)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Canvas errors
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"
	ErrCodePending      Code = "OPERATION_PENDING"
	ErrCodeUnsupported  Code = "UNSUPPORTED_OPERATION"
	ErrCodeInvalidLink  Code = "INVALID_LINK"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"
	ErrCodeUnavailable Code = "SERVICE_UNAVAILABLE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a coded error. Message is shown to users; Cause is optional.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error renders "CODE: message[: cause]".
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its code
// or cause, or err.Error() for other errors. The proxy server and the
// canvas failure messages use it.
func UserMessage(err error) string {
	if e, ok := as(err); ok {
		return e.Message
	}
	return err.Error()
}

func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
