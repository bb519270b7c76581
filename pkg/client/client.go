// Package client provides the main fetch API.
package client

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/WhileEndless/go-rawfetch/pkg/buffer"
	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/protocol"
	"github.com/WhileEndless/go-rawfetch/pkg/render"
	"github.com/WhileEndless/go-rawfetch/pkg/timing"
	"github.com/WhileEndless/go-rawfetch/pkg/tlsconfig"
	"github.com/WhileEndless/go-rawfetch/pkg/transport"
)

// Response represents a fetched resource.
type Response struct {
	URL        string
	StatusCode int
	Headers    protocol.Header
	Body       []byte
	Timings    timing.Metrics

	// Rendered is true when Body came from the renderer instead of the socket.
	Rendered bool

	// Connection metadata
	RemoteAddr     string
	Proxied        bool
	TLSVersion     string
	TLSCipherSuite string
	TLSServerName  string
}

// Connector opens connections for the Fetcher. *transport.Transport is the
// default implementation.
type Connector interface {
	Connect(ctx context.Context, config transport.Config, timer *timing.Timer) (net.Conn, transport.Metadata, error)
}

// Observer is notified once per Fetch with the outcome.
type Observer interface {
	ObserveFetch(rawURL string, resp *Response, err error, elapsed time.Duration)
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithRenderer sets the collaborator used for render-delegated content types.
func WithRenderer(r render.Renderer) Option {
	return func(f *Fetcher) { f.renderer = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// WithObserver registers an observer for fetch outcomes.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

// WithConnector replaces the default transport.
func WithConnector(c Connector) Option {
	return func(f *Fetcher) { f.connector = c }
}

// Fetcher performs single-shot HTTP/1.0 GETs over raw sockets. It holds no
// per-fetch state and may be shared between goroutines.
type Fetcher struct {
	config     Config
	tlsProfile tlsconfig.VersionProfile
	connector  Connector
	renderer   render.Renderer
	observer   Observer
	log        zerolog.Logger
}

// New returns a Fetcher for config.
func New(config Config, opts ...Option) (*Fetcher, error) {
	profile, err := tlsconfig.ProfileByName(config.TLSProfile)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if config.Proxy.Enabled {
		if config.Proxy.Host == "" {
			return nil, errors.NewValidationError("proxy is enabled but no proxy host is set")
		}
		if config.Proxy.Port <= 0 || config.Proxy.Port > 65535 {
			return nil, errors.NewValidationError("proxy port must be between 1 and 65535")
		}
		if config.Proxy.Type != transport.ProxySOCKS5 && config.Proxy.HasCredentials() {
			return nil, errors.NewValidationError("proxy credentials are only supported for socks5 proxies")
		}
	}

	f := &Fetcher{
		config:     config,
		tlsProfile: profile,
		connector:  transport.New(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Config returns the configuration the Fetcher was built with.
func (f *Fetcher) Config() Config {
	return f.config
}

// Fetch retrieves rawURL. A non-zero modifiedSince adds If-Modified-Since.
// The connection is closed before Fetch returns. On error no Response is
// returned; a body cut short by MaxContent is not an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, modifiedSince time.Time) (resp *Response, err error) {
	start := time.Now()
	if f.observer != nil {
		defer func() {
			f.observer.ObserveFetch(rawURL, resp, err, time.Since(start))
		}()
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.NewValidationError("invalid URL: " + err.Error())
	}
	if err := transport.ValidateScheme(u.Scheme); err != nil {
		return nil, err
	}
	host := u.Hostname()
	if host == "" {
		return nil, errors.NewValidationError("URL has no host: " + rawURL)
	}
	port := protocol.DefaultPort(u.Scheme)
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, errors.NewValidationError("invalid port in URL: " + p)
		}
	}

	proxy := f.config.proxyFor(host)
	timer := timing.NewTimer()

	conn, meta, err := f.connector.Connect(ctx, transport.Config{
		Scheme:      u.Scheme,
		Host:        host,
		Port:        port,
		Timeout:     f.config.Timeout,
		Proxy:       proxy,
		InsecureTLS: f.config.InsecureTLS,
		TLSProfile:  f.tlsProfile,
	}, timer)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := protocol.Request{
		URL: u,
		// Only a plain HTTP proxy needs the absolute URL; tunnels see the origin.
		AbsoluteForm:   proxy != nil && proxy.Type == transport.ProxyHTTP,
		UserAgent:      f.config.UserAgent,
		AcceptLanguage: f.config.AcceptLanguage,
		Accept:         f.config.Accept,
		ModifiedSince:  modifiedSince,
	}
	if err := protocol.WriteRequest(conn, req, f.log); err != nil {
		return nil, err
	}

	r := buffer.NewReader(conn, constants.BufferSize)

	endTTFB := timer.Begin(timing.PhaseTTFB)
	err = protocol.AwaitResponse(r)
	endTTFB()
	if err != nil {
		return nil, err
	}

	code, headers, err := protocol.ReadResponseHead(r, f.log)
	if err != nil {
		return nil, err
	}

	bodyOpts := protocol.BodyOptions{
		URL:                rawURL,
		MaxContent:         f.config.MaxContent,
		RenderContentTypes: f.config.RenderContentTypes,
		Renderer:           f.renderer,
		Logger:             f.log,
	}
	endBody := timer.Begin(timing.PhaseBody)
	body, err := protocol.ReadBody(ctx, r, &headers, bodyOpts)
	endBody()
	if err != nil {
		return nil, err
	}

	resp = &Response{
		URL:            rawURL,
		StatusCode:     code,
		Headers:        headers,
		Body:           body,
		Timings:        timer.Metrics(),
		Rendered:       bodyOpts.ShouldRender(&headers),
		RemoteAddr:     meta.RemoteAddr,
		Proxied:        meta.Proxied,
		TLSVersion:     meta.TLSVersion,
		TLSCipherSuite: meta.TLSCipherSuite,
		TLSServerName:  meta.TLSServerName,
	}

	f.log.Debug().
		Str("url", rawURL).
		Int("status", code).
		Int("body_bytes", len(body)).
		Bool("rendered", resp.Rendered).
		Dur("ttfb", resp.Timings.TTFB).
		Dur("total", resp.Timings.TotalTime).
		Msg("Fetch completed")

	return resp, nil
}
