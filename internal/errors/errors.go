// Package errors provides standardized domain errors with codes for the tag engine.
//
// Usage:
//
//	// In the reader/writer - return typed errors
//	if readOnly {
//	    return errors.ReadOnly("refusing to write read-only file")
//	}
//
//	// In batch callers - check with errors.Is
//	if errors.Is(err, errors.ErrPermissionDenied) {
//	    report.Fail(path, err)
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeMalformedTag:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the engine.
//
// Read-side codes abort reading one file, write-side codes abort one file's
// write; neither aborts a batch. Configuration codes are raised immediately
// at the call that supplied the bad configuration, never silently clamped.
const (
	CodeNotFound         Code = "NOT_FOUND"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeMalformedTag     Code = "MALFORMED_TAG"
	CodeUnsupportedFrame Code = "UNSUPPORTED_FRAME"
	CodeIO               Code = "IO"
	CodeReadOnly         Code = "READ_ONLY"
	CodeWriteUnsupported Code = "WRITE_UNSUPPORTED"
	CodeSizeConstraint   Code = "SIZE_CONSTRAINT"
	CodeInvalidConfig    Code = "INVALID_CONFIG"
	CodeValidation       Code = "VALIDATION"
	CodeInternal         Code = "INTERNAL"
)

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "file not found"}
	ErrPermissionDenied = &Error{Code: CodePermissionDenied, Message: "permission denied"}
	ErrMalformedTag     = &Error{Code: CodeMalformedTag, Message: "malformed tag"}
	ErrUnsupportedFrame = &Error{Code: CodeUnsupportedFrame, Message: "unsupported frame"}
	ErrIO               = &Error{Code: CodeIO, Message: "i/o failure"}
	ErrReadOnly         = &Error{Code: CodeReadOnly, Message: "file is read-only"}
	ErrWriteUnsupported = &Error{Code: CodeWriteUnsupported, Message: "container does not support writing"}
	ErrSizeConstraint   = &Error{Code: CodeSizeConstraint, Message: "size constraint unsatisfiable"}
	ErrInvalidConfig    = &Error{Code: CodeInvalidConfig, Message: "invalid configuration"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// PermissionDenied creates a permission denied error.
func PermissionDenied(msg string) *Error {
	return &Error{Code: CodePermissionDenied, Message: msg}
}

// MalformedTag creates a malformed tag error.
func MalformedTag(msg string) *Error {
	return &Error{Code: CodeMalformedTag, Message: msg}
}

// MalformedTagf creates a malformed tag error with formatted message.
func MalformedTagf(format string, args ...any) *Error {
	return &Error{Code: CodeMalformedTag, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedFrame creates an unsupported frame error.
func UnsupportedFrame(msg string) *Error {
	return &Error{Code: CodeUnsupportedFrame, Message: msg}
}

// IO creates an i/o error.
func IO(msg string) *Error {
	return &Error{Code: CodeIO, Message: msg}
}

// ReadOnly creates a read-only error.
func ReadOnly(msg string) *Error {
	return &Error{Code: CodeReadOnly, Message: msg}
}

// WriteUnsupported creates a write-unsupported error.
func WriteUnsupported(msg string) *Error {
	return &Error{Code: CodeWriteUnsupported, Message: msg}
}

// SizeConstraint creates a size-constraint error.
func SizeConstraint(msg string) *Error {
	return &Error{Code: CodeSizeConstraint, Message: msg}
}

// SizeConstraintf creates a size-constraint error with formatted message.
func SizeConstraintf(format string, args ...any) *Error {
	return &Error{Code: CodeSizeConstraint, Message: fmt.Sprintf(format, args...)}
}

// InvalidConfig creates an invalid configuration error.
func InvalidConfig(msg string) *Error {
	return &Error{Code: CodeInvalidConfig, Message: msg}
}

// InvalidConfigf creates an invalid configuration error with formatted message.
func InvalidConfigf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidConfig, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
