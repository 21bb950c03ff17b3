package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"
	ErrorTypeAuth              ErrorType = "auth"
	ErrorTypeHTTP              ErrorType = "http"
	ErrorTypeFormatMismatch    ErrorType = "format_mismatch"
	ErrorTypeGatewayTimeout    ErrorType = "gateway_timeout"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeInput             ErrorType = "input"
)

// Error represents a catalogue client error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// UnsupportedFormat is returned before any request is made for an unknown format
func UnsupportedFormat(format string) *Error {
	return &Error{
		Type:    ErrorTypeUnsupportedFormat,
		Message: fmt.Sprintf("Format %q unknown", format),
	}
}

// Authentication is returned when a login step is rejected
func Authentication(message string, code int) *Error {
	return &Error{
		Type:    ErrorTypeAuth,
		Message: message,
		Code:    code,
	}
}

// HTTP is returned for a response with status >= 400 that will not be retried
func HTTP(url string, code int) *Error {
	return &Error{
		Type:    ErrorTypeHTTP,
		Message: fmt.Sprintf("%s returned code %d", url, code),
		Code:    code,
		URL:     url,
	}
}

// FormatMismatch is returned when the server answers with another content type
func FormatMismatch(url, format, actual string) *Error {
	return &Error{
		Type:    ErrorTypeFormatMismatch,
		Message: fmt.Sprintf("%s did not return '%s' but '%s'", url, format, actual),
		URL:     url,
	}
}

// GatewayTimeout marks a 504 response that may still be retried
func GatewayTimeout(url string) *Error {
	return &Error{
		Type:    ErrorTypeGatewayTimeout,
		Message: fmt.Sprintf("%s timed out at the gateway", url),
		Code:    504,
		URL:     url,
	}
}

// Network wraps a transport failure below the HTTP layer
func Network(url string, err error) *Error {
	return &Error{
		Type:    ErrorTypeNetwork,
		Message: fmt.Sprintf("request to %s failed: %v", url, err),
		URL:     url,
		Err:     err,
	}
}

// Input is returned for invalid caller input detected before any network activity
func Input(message string) *Error {
	return &Error{
		Type:    ErrorTypeInput,
		Message: message,
	}
}

// IsType reports whether err is (or wraps) an *Error of the given type
func IsType(err error, errorType ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeGatewayTimeout, ErrorTypeNetwork:
		return true
	default:
		return false
	}
}
