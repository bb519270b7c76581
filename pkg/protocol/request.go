// Package protocol implements the HTTP/1.0 wire format used by the fetcher:
// request serialisation, response head parsing and body acquisition.
package protocol

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
)

// Request describes the single GET written for a fetch.
type Request struct {
	URL *url.URL

	// AbsoluteForm puts the full URL on the request line, as HTTP proxies expect.
	AbsoluteForm bool

	UserAgent      string
	AcceptLanguage string
	Accept         string

	// ModifiedSince adds If-Modified-Since when it is after the Unix epoch.
	ModifiedSince time.Time
}

// DefaultPort returns the port implied by scheme.
func DefaultPort(scheme string) int {
	if scheme == "https" {
		return constants.DefaultHTTPSPort
	}
	return constants.DefaultHTTPPort
}

// HostHeader returns the Host value for u. The port is only included when it
// differs from the scheme default; some servers redirect "host:80" to "host".
func HostHeader(u *url.URL) string {
	host := u.Hostname()
	port := u.Port()
	if port == "" || port == strconv.Itoa(DefaultPort(u.Scheme)) {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// RequestTarget returns the request-line target for req.
func RequestTarget(req Request) string {
	path := req.URL.RequestURI() // "/" when the URL has no path
	if req.AbsoluteForm {
		return req.URL.Scheme + "://" + HostHeader(req.URL) + path
	}
	return path
}

// BuildRequest serialises req. log receives a warning when no user agent is set.
func BuildRequest(req Request, log zerolog.Logger) []byte {
	var b bytes.Buffer

	b.WriteString("GET ")
	b.WriteString(RequestTarget(req))
	b.WriteString(" HTTP/1.0\r\n")

	writeHeader(&b, "Host", HostHeader(req.URL))
	writeHeader(&b, "Accept-Encoding", constants.AcceptEncoding)

	if req.UserAgent == "" {
		log.Warn().Str("url", req.URL.String()).Msg("User-agent is not set")
	} else {
		writeHeader(&b, "User-Agent", req.UserAgent)
	}

	writeHeader(&b, "Accept-Language", req.AcceptLanguage)
	writeHeader(&b, "Accept", req.Accept)

	if !req.ModifiedSince.IsZero() && req.ModifiedSince.UnixMilli() > 0 {
		writeHeader(&b, "If-Modified-Since", req.ModifiedSince.UTC().Format(http.TimeFormat))
	}

	b.WriteString("\r\n")
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

// WriteRequest writes req onto w in full. Nothing is read back.
func WriteRequest(w io.Writer, req Request, log zerolog.Logger) error {
	data := BuildRequest(req, log)

	// Handle partial writes by writing all data
	written := 0
	for written < len(data) {
		n, err := w.Write(data[written:])
		if err != nil {
			return wrapIOError("writing request", err)
		}
		written += n
	}
	return nil
}

// wrapIOError keeps structured errors (timeouts raised by the connection)
// and wraps anything else as a connection failure.
func wrapIOError(operation string, err error) error {
	if errors.GetErrorType(err) != "" {
		return err
	}
	return errors.NewIOError(operation, err)
}
