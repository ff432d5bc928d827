package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeServerError  ErrorType = "server_error"
	ErrorTypeStatus       ErrorType = "status"
	ErrorTypeParsing      ErrorType = "parsing"
	ErrorTypeMissingField ErrorType = "missing_field"
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeStorage      ErrorType = "storage"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error represents a pipeline error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(errType ErrorType, code int, msg string) *Error {
	return &Error{Type: errType, Message: msg, Code: code}
}

// Wrap creates a typed error around a cause
func Wrap(errType ErrorType, code int, msg string, err error) *Error {
	return &Error{Type: errType, Message: msg, Code: code, Err: err}
}

// MissingField reports that a required path is absent from an entity record
func MissingField(path string) *Error {
	return &Error{
		Type:    ErrorTypeMissingField,
		Message: fmt.Sprintf("required field %q is missing", path),
	}
}

// ForStatus maps a non-200 HTTP status to a typed error
func ForStatus(statusCode int) *Error {
	switch {
	case statusCode == 404:
		return New(ErrorTypeNotFound, statusCode, "resource not found")
	case statusCode == 429:
		return New(ErrorTypeRateLimit, statusCode, "rate limit exceeded")
	case statusCode >= 500:
		return New(ErrorTypeServerError, statusCode, "server error")
	default:
		return New(ErrorTypeStatus, statusCode, fmt.Sprintf("unexpected status code: %d", statusCode))
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsSkippable reports whether an entity that produced err can be skipped
// while the run carries on. Fetch and record failures are skippable,
// storage failures are not.
func IsSkippable(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeNotFound, ErrorTypeServerError,
		ErrorTypeStatus, ErrorTypeParsing, ErrorTypeMissingField:
		return true
	default:
		return false
	}
}
