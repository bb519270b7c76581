package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name         string
		err          *Error
		expectedType ErrorType
	}{
		{
			name:         "Unsupported Scheme",
			err:          NewUnsupportedSchemeError("ftp"),
			expectedType: ErrorTypeUnsupportedScheme,
		},
		{
			name:         "Connection Error",
			err:          NewConnectionError("example.com", 443, fmt.Errorf("connection refused")),
			expectedType: ErrorTypeConnection,
		},
		{
			name:         "TLS Error",
			err:          NewTLSError("example.com", 443, fmt.Errorf("handshake failed")),
			expectedType: ErrorTypeConnection,
		},
		{
			name:         "Timeout Error",
			err:          NewTimeoutError("connect", 5*time.Second, nil),
			expectedType: ErrorTypeTimeout,
		},
		{
			name:         "Malformed Status Line",
			err:          NewMalformedStatusLineError("HTTP/1.1 abc", fmt.Errorf("parse error")),
			expectedType: ErrorTypeMalformedStatusLine,
		},
		{
			name:         "Malformed Header",
			err:          NewMalformedHeaderError("garbage-line"),
			expectedType: ErrorTypeMalformedHeader,
		},
		{
			name:         "Header Too Large",
			err:          NewHeaderTooLargeError(64 * 1024),
			expectedType: ErrorTypeMalformedHeader,
		},
		{
			name:         "Bad Content Length",
			err:          NewBadContentLengthError("ten", nil),
			expectedType: ErrorTypeBadContentLength,
		},
		{
			name:         "Unexpected EOF",
			err:          NewUnexpectedEOFError("headers"),
			expectedType: ErrorTypeUnexpectedEOF,
		},
		{
			name:         "Render Error",
			err:          NewRenderError("http://example.com/", fmt.Errorf("browser crashed")),
			expectedType: ErrorTypeRender,
		},
		{
			name:         "Validation Error",
			err:          NewValidationError("url cannot be empty"),
			expectedType: ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.expectedType {
				t.Errorf("expected type %v, got %v", tt.expectedType, tt.err.Type)
			}

			if tt.err.Error() == "" {
				t.Error("error message should not be empty")
			}

			if tt.err.Timestamp.IsZero() {
				t.Error("timestamp should be set")
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := NewConnectionError("example.com", 80, cause)

	if err.Unwrap() != cause {
		t.Errorf("expected unwrapped error to be %v, got %v", cause, err.Unwrap())
	}
	if err.Host != "example.com" || err.Port != 80 {
		t.Errorf("expected endpoint example.com:80, got %s:%d", err.Host, err.Port)
	}
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("fetch: %w", NewMalformedHeaderError("garbage-line"))

	if !stderrors.Is(err, ErrMalformedHeader) {
		t.Error("wrapped error should match its sentinel")
	}
	if stderrors.Is(err, ErrMalformedStatusLine) {
		t.Error("errors with different types should not match")
	}
}

func TestIsTimeoutError(t *testing.T) {
	if !IsTimeoutError(NewTimeoutError("read", time.Second, nil)) {
		t.Error("should identify timeout error")
	}

	if !IsTimeoutError(context.DeadlineExceeded) {
		t.Error("should identify context deadline as timeout")
	}

	if IsTimeoutError(NewConnectionError("example.com", 80, fmt.Errorf("refused"))) {
		t.Error("should not identify connection error as timeout")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewConnectionError("example.com", 80, nil)) {
		t.Error("connection errors should be retryable")
	}
	if !IsRetryable(NewTimeoutError("connect", time.Second, nil)) {
		t.Error("timeouts should be retryable")
	}
	if IsRetryable(NewBadContentLengthError("x", nil)) {
		t.Error("protocol errors should not be retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("unstructured errors should not be retryable")
	}
}

func TestIsContextCanceled(t *testing.T) {
	if !IsContextCanceled(NewConnectionError("example.com", 80, context.Canceled)) {
		t.Error("should see cancellation through a wrapped cause")
	}
	if IsContextCanceled(NewTimeoutError("read", time.Second, context.DeadlineExceeded)) {
		t.Error("deadline is not cancellation")
	}
}

func TestGetErrorType(t *testing.T) {
	if got := GetErrorType(NewValidationError("test")); got != ErrorTypeValidation {
		t.Errorf("expected %v, got %v", ErrorTypeValidation, got)
	}

	if got := GetErrorType(fmt.Errorf("regular error")); got != "" {
		t.Errorf("expected empty type for regular error, got %v", got)
	}
}
