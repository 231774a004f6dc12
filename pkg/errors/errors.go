// Package errors provides structured error types for imprint.
//
// This package defines error codes and types that enable:
//   - Per-item failure classification in batch runs
//   - Machine-readable error codes for the HTTP transport
//   - User-friendly error messages (never a raw internal error)
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map one-to-one onto the failure kinds of the render pipeline:
//   - CONFIGURATION_ERROR: registry or font store unreadable (process-level)
//   - INVALID_REQUEST: a request misses required fields (per-item)
//   - TEMPLATE_NOT_FOUND, BASE_PAGE_MISSING, PAGE_INDEX_OUT_OF_RANGE
//   - FONT_UNAVAILABLE: neither the requested font nor the fallback exists
//   - INTERNAL_COMPOSITING_ERROR: drawing or serialization failed
//   - TRANSPORT_ERROR: an external collaborator could not be reached
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTemplateNotFound, "template %q not found", id)
//	if errors.Is(err, errors.ErrCodeTemplateNotFound) {
//	    // Handle missing template
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "encode %s", name)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Process-level configuration errors
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"

	// Input validation errors
	ErrCodeInvalidRequest Code = "INVALID_REQUEST"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Resource errors
	ErrCodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	ErrCodeBasePageMissing  Code = "BASE_PAGE_MISSING"
	ErrCodePageOutOfRange   Code = "PAGE_INDEX_OUT_OF_RANGE"
	ErrCodeFontUnavailable  Code = "FONT_UNAVAILABLE"

	// Transport errors
	ErrCodeTransport Code = "TRANSPORT_ERROR"
	ErrCodeTimeout   Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_COMPOSITING_ERROR"
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
// It returns the code of the outermost *Error in the chain.
func Is(err error, code Code) bool {
	return GetCode(err) == code
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

// CodeOf is like GetCode but classifies foreign errors as internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return code
	}
	return ErrCodeInternal
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// Foreign errors are reported generically so internals never leak.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps an error code to the status returned by the HTTP transport.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeTemplateNotFound, ErrCodeBasePageMissing, ErrCodeFontUnavailable:
		return http.StatusNotFound
	case ErrCodePageOutOfRange:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidRequest, ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeTransport:
		return http.StatusBadGateway
	case ErrCodeConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsTransport reports whether err means an external collaborator is unreachable.
// Batch runs abort on these instead of recording a per-item failure.
func IsTransport(err error) bool {
	return Is(err, ErrCodeTransport)
}
