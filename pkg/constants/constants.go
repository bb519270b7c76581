// Package constants defines magic numbers and default values used throughout go-rawfetch
package constants

import "time"

// Connection timeouts
const (
	DefaultTimeout = 10 * time.Second
)

// Ports used when the URL does not carry one
const (
	DefaultHTTPPort  = 80
	DefaultHTTPSPort = 443
)

// Read sizes
const (
	BufferSize        = 8 * 1024
	DefaultMaxContent = 1024 * 1024 // 1MB
	MaxHeaderBytes    = 64 * 1024
)

// Request header defaults
const (
	AcceptEncoding        = "x-gzip, gzip, deflate"
	DefaultUserAgent      = "rawfetch/1.0"
	DefaultAcceptLanguage = "en-us,en-gb,en;q=0.7,*;q=0.3"
	DefaultAccept         = "text/html,application/xml;q=0.9,application/xhtml+xml,text/xml;q=0.9,*/*;q=0.8"
)

// DefaultRenderContentTypes lists the Content-Type fragments that route the
// body through the render collaborator instead of the socket.
var DefaultRenderContentTypes = []string{"text/html", "application/xhtml"}
