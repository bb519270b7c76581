// Package rawfetch provides a low-level HTTP/1.0 fetcher for crawlers that
// writes requests directly onto TCP or TLS sockets and parses responses
// leniently, including servers that omit the blank line before the body.
package rawfetch

import (
	"context"
	"time"

	"github.com/WhileEndless/go-rawfetch/pkg/client"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/protocol"
	"github.com/WhileEndless/go-rawfetch/pkg/render"
	"github.com/WhileEndless/go-rawfetch/pkg/timing"
)

// Version is the current version of the rawfetch library
const Version = "1.0.0"

// GetVersion returns the current version of the library
func GetVersion() string {
	return Version
}

// Re-export key types for easier usage
type (
	// Config controls how the Fetcher connects, what it sends and how much it reads.
	Config = client.Config

	// Response represents a fetched resource.
	Response = client.Response

	// Fetcher performs single-shot fetches.
	Fetcher = client.Fetcher

	// Option customizes a Fetcher.
	Option = client.Option

	// Header is an ordered header collection with case-insensitive lookup.
	Header = protocol.Header

	// Renderer produces HTML for render-delegated content types.
	Renderer = render.Renderer

	// RenderFunc adapts a function to Renderer.
	RenderFunc = render.Func

	// Metrics captures detailed timing information for a fetch.
	Metrics = timing.Metrics

	// Error represents a structured error with context information.
	Error = errors.Error
)

// Re-export error types for convenience
const (
	ErrorTypeUnsupportedScheme   = errors.ErrorTypeUnsupportedScheme
	ErrorTypeConnection          = errors.ErrorTypeConnection
	ErrorTypeTimeout             = errors.ErrorTypeTimeout
	ErrorTypeMalformedStatusLine = errors.ErrorTypeMalformedStatusLine
	ErrorTypeMalformedHeader     = errors.ErrorTypeMalformedHeader
	ErrorTypeBadContentLength    = errors.ErrorTypeBadContentLength
	ErrorTypeUnexpectedEOF       = errors.ErrorTypeUnexpectedEOF
	ErrorTypeRender              = errors.ErrorTypeRender
	ErrorTypeValidation          = errors.ErrorTypeValidation
)

// Option constructors.
var (
	WithRenderer  = client.WithRenderer
	WithLogger    = client.WithLogger
	WithObserver  = client.WithObserver
	WithConnector = client.WithConnector
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return client.DefaultConfig()
}

// New returns a Fetcher for config.
func New(config Config, opts ...Option) (*Fetcher, error) {
	return client.New(config, opts...)
}

// Fetch retrieves rawURL once with the default configuration.
func Fetch(ctx context.Context, rawURL string, modifiedSince time.Time) (*Response, error) {
	f, err := client.New(client.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, rawURL, modifiedSince)
}

// IsTimeoutError checks if an error is a timeout error.
func IsTimeoutError(err error) bool {
	return errors.IsTimeoutError(err)
}

// IsRetryable reports whether a failed fetch may succeed if retried.
func IsRetryable(err error) bool {
	return errors.IsRetryable(err)
}

// GetErrorType returns the error type if it's a structured error.
func GetErrorType(err error) string {
	return string(errors.GetErrorType(err))
}
