// Package errs defines the coded error taxonomy shared by the resolution,
// installation and restore engines.
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Code identifies an error category. Codes are stable and safe to compare in tests.
type Code string

const (
	CodeUnknown    Code = "UNKNOWN"
	CodeResolution Code = "RESOLUTION"
	CodeExecution  Code = "EXECUTION"
	CodeCancelled  Code = "CANCELLED"
	CodeIntegrity  Code = "INTEGRITY"
	CodeManifest   Code = "MANIFEST"
	CodeConfig     Code = "CONFIG"
	CodeCatalog    Code = "CATALOG"
)

// ErrCancelled is the sentinel matched by errors.Is for any cancellation error.
var ErrCancelled = &Error{Code: CodeCancelled, Message: "operation cancelled by user"}

// Error is a categorized error with optional structured details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// WithDetail attaches a key/value pair that loggers can emit as a structured field.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns nil when err is nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Wrapped: err}
}

// Wrapf returns nil when err is nil.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// Cancelled wraps cause (usually ctx.Err()) as a cancellation error.
func Cancelled(cause error) error {
	return &Error{Code: CodeCancelled, Message: ErrCancelled.Message, Wrapped: cause}
}

// IsCancelled reports whether err stems from cancellation, either through the
// coded taxonomy or a plain context cancellation.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// CodeOf returns the code of the outermost *Error in err's chain.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}
