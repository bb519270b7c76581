// Package errors provides structured error types for the rawfetch library.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorType represents the category of error that occurred.
type ErrorType string

const (
	// ErrorTypeUnsupportedScheme represents URLs whose scheme is not http or https
	ErrorTypeUnsupportedScheme ErrorType = "unsupported_scheme"
	// ErrorTypeConnection represents connect, handshake and socket write/read failures
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeMalformedStatusLine represents a status line without a numeric code
	ErrorTypeMalformedStatusLine ErrorType = "malformed_status_line"
	// ErrorTypeMalformedHeader represents a non-blank header line without a colon
	ErrorTypeMalformedHeader ErrorType = "malformed_header"
	// ErrorTypeBadContentLength represents an unparsable Content-Length value
	ErrorTypeBadContentLength ErrorType = "bad_content_length"
	// ErrorTypeUnexpectedEOF represents the connection closing inside the response head
	ErrorTypeUnexpectedEOF ErrorType = "unexpected_eof"
	// ErrorTypeRender represents a failure of the render collaborator
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeValidation represents invalid caller input
	ErrorTypeValidation ErrorType = "validation"
)

// Sentinel values for use with errors.Is. Matching is by Type only.
var (
	ErrUnsupportedScheme   = &Error{Type: ErrorTypeUnsupportedScheme}
	ErrConnection          = &Error{Type: ErrorTypeConnection}
	ErrTimeout             = &Error{Type: ErrorTypeTimeout}
	ErrMalformedStatusLine = &Error{Type: ErrorTypeMalformedStatusLine}
	ErrMalformedHeader     = &Error{Type: ErrorTypeMalformedHeader}
	ErrBadContentLength    = &Error{Type: ErrorTypeBadContentLength}
	ErrUnexpectedEOF       = &Error{Type: ErrorTypeUnexpectedEOF}
	ErrRender              = &Error{Type: ErrorTypeRender}
	ErrValidation          = &Error{Type: ErrorTypeValidation}
)

// Error represents a structured error with context information.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
	Host      string    `json:"host,omitempty"`
	Port      int       `json:"port,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target type.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Type == t.Type
	}
	return false
}

func newError(t ErrorType, cause error, format string, args ...any) *Error {
	return &Error{
		Type:      t,
		Message:   fmt.Sprintf(format, args...),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

func withEndpoint(e *Error, host string, port int) *Error {
	e.Host, e.Port = host, port
	return e
}

// NewUnsupportedSchemeError creates an error for a URL scheme other than http/https.
func NewUnsupportedSchemeError(scheme string) *Error {
	return newError(ErrorTypeUnsupportedScheme, nil, "unknown scheme %q (not http/https)", scheme)
}

// NewConnectionError creates a connection error.
func NewConnectionError(host string, port int, cause error) *Error {
	return withEndpoint(newError(ErrorTypeConnection, cause, "connect to %s:%d failed", host, port), host, port)
}

// NewTLSError reports a failed handshake. It is a connection error so that
// callers treat it as retryable.
func NewTLSError(host string, port int, cause error) *Error {
	return withEndpoint(newError(ErrorTypeConnection, cause, "TLS handshake with %s:%d failed", host, port), host, port)
}

// NewIOError wraps a failed socket read or write.
func NewIOError(operation string, cause error) *Error {
	return newError(ErrorTypeConnection, cause, "%s", operation)
}

// NewTimeoutError reports an operation that made no progress within timeout.
func NewTimeoutError(operation string, timeout time.Duration, cause error) *Error {
	return newError(ErrorTypeTimeout, cause, "%s: no progress within %v", operation, timeout)
}

// NewMalformedStatusLineError reports a status line without a numeric code.
func NewMalformedStatusLineError(line string, cause error) *Error {
	return newError(ErrorTypeMalformedStatusLine, cause, "bad status line %q", line)
}

// NewMalformedHeaderError reports a non-blank header line without a colon.
func NewMalformedHeaderError(line string) *Error {
	return newError(ErrorTypeMalformedHeader, nil, "no colon in header: %q", line)
}

// NewHeaderTooLargeError reports a response head larger than limit bytes.
func NewHeaderTooLargeError(limit int) *Error {
	return newError(ErrorTypeMalformedHeader, nil, "response headers exceed %d bytes", limit)
}

// NewBadContentLengthError reports a Content-Length that is not a valid size.
func NewBadContentLengthError(value string, cause error) *Error {
	return newError(ErrorTypeBadContentLength, cause, "bad content length: %q", value)
}

// NewUnexpectedEOFError reports a stream that ended inside the response head.
func NewUnexpectedEOFError(stage string) *Error {
	return newError(ErrorTypeUnexpectedEOF, nil, "connection closed while reading %s", stage)
}

// NewRenderError wraps a failure of the render collaborator for url.
func NewRenderError(url string, cause error) *Error {
	return newError(ErrorTypeRender, cause, "rendering %s failed", url)
}

// NewValidationError reports invalid caller input or configuration.
func NewValidationError(message string) *Error {
	return newError(ErrorTypeValidation, nil, "%s", message)
}

// IsTimeoutError checks if an error is a timeout error.
func IsTimeoutError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsRetryable reports whether the caller may retry the fetch. Only network
// level failures qualify; protocol errors will repeat on the same server.
func IsRetryable(err error) bool {
	switch GetErrorType(err) {
	case ErrorTypeConnection, ErrorTypeTimeout:
		return true
	}
	return false
}

// GetErrorType returns the error type if it's a structured error.
func GetErrorType(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsContextCanceled checks if an error is due to context cancellation.
func IsContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
