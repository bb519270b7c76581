// Package transport provides the connection setup for a fetch: DNS, TCP,
// optional proxying and the TLS upgrade.
package transport

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/timing"
	"github.com/WhileEndless/go-rawfetch/pkg/tlsconfig"
)

// Proxy types accepted in ProxyConfig.Type.
const (
	ProxyHTTP   = "http"
	ProxySOCKS5 = "socks5"
)

// ProxyConfig describes an upstream proxy.
type ProxyConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Address returns host:port of the proxy.
func (p *ProxyConfig) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// HasCredentials reports whether a username or password is set.
func (p *ProxyConfig) HasCredentials() bool {
	return p.Username != "" || p.Password != ""
}

// Config holds transport configuration for one connection.
type Config struct {
	Scheme string
	Host   string
	Port   int

	// Timeout bounds the connect, the TLS handshake and every later read
	// and write on the connection.
	Timeout time.Duration

	// Proxy routes the connection through an upstream proxy when set.
	Proxy *ProxyConfig

	InsecureTLS bool
	TLSProfile  tlsconfig.VersionProfile
}

// Metadata describes the established connection.
type Metadata struct {
	RemoteAddr     string
	Proxied        bool
	TLSVersion     string
	TLSCipherSuite string
	TLSServerName  string
}

// Transport handles the network connection and TLS negotiation.
type Transport struct {
	resolver *net.Resolver
}

// New creates a new Transport instance.
func New() *Transport {
	return &Transport{
		resolver: net.DefaultResolver,
	}
}

// NewWithResolver creates a new Transport with a custom resolver.
func NewWithResolver(resolver *net.Resolver) *Transport {
	return &Transport{
		resolver: resolver,
	}
}

// ValidateScheme rejects anything but http and https.
func ValidateScheme(scheme string) error {
	if scheme != "http" && scheme != "https" {
		return errors.NewUnsupportedSchemeError(scheme)
	}
	return nil
}

// Connect establishes a connection based on the configuration. The returned
// connection applies config.Timeout to each read and write.
func (t *Transport) Connect(ctx context.Context, config Config, timer *timing.Timer) (net.Conn, Metadata, error) {
	var meta Metadata
	if err := t.validateConfig(config); err != nil {
		return nil, meta, err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}

	conn, err := t.dial(ctx, config, timeout, timer)
	if err != nil {
		return nil, meta, err
	}
	meta.RemoteAddr = conn.RemoteAddr().String()
	meta.Proxied = config.Proxy != nil

	if config.Scheme == "https" {
		tlsConn, err := t.upgradeTLS(ctx, conn, config, timeout, timer)
		if err != nil {
			conn.Close()
			return nil, meta, err
		}
		state := tlsConn.ConnectionState()
		meta.TLSVersion = tlsconfig.GetVersionName(state.Version)
		meta.TLSCipherSuite = tls.CipherSuiteName(state.CipherSuite)
		meta.TLSServerName = state.ServerName
		conn = tlsConn
	}

	return &deadlineConn{Conn: conn, timeout: timeout}, meta, nil
}

func (t *Transport) validateConfig(config Config) error {
	if err := ValidateScheme(config.Scheme); err != nil {
		return err
	}
	if config.Host == "" {
		return errors.NewValidationError("host cannot be empty")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return errors.NewValidationError("port must be between 1 and 65535")
	}
	if p := config.Proxy; p != nil {
		if p.Type != ProxyHTTP && p.Type != ProxySOCKS5 {
			return errors.NewValidationError(fmt.Sprintf("unsupported proxy type %q", p.Type))
		}
		if p.Host == "" || p.Port <= 0 || p.Port > 65535 {
			return errors.NewValidationError("proxy host and port must be set")
		}
		if p.Type == ProxyHTTP && p.HasCredentials() {
			return errors.NewValidationError("proxy credentials are only supported for socks5 proxies")
		}
	}
	return nil
}

func (t *Transport) dial(ctx context.Context, config Config, timeout time.Duration, timer *timing.Timer) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// SOCKS5 tunnels straight to the target and leaves DNS to the proxy.
	if config.Proxy != nil && config.Proxy.Type == ProxySOCKS5 {
		return t.dialSOCKS5(dialCtx, config, timeout, timer)
	}

	host, port := config.Host, config.Port
	if config.Proxy != nil {
		host, port = config.Proxy.Host, config.Proxy.Port
	}

	addr, err := t.resolveAddress(dialCtx, host, port, timeout, timer)
	if err != nil {
		return nil, err
	}

	defer timer.Begin(timing.PhaseTCP)()

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, connectError(host, port, timeout, err)
	}
	return conn, nil
}

func (t *Transport) resolveAddress(ctx context.Context, host string, port int, timeout time.Duration, timer *timing.Timer) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return net.JoinHostPort(ip.String(), strconv.Itoa(port)), nil
	}

	defer timer.Begin(timing.PhaseDNS)()

	addrs, err := t.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", connectError(host, port, timeout, err)
	}
	if len(addrs) == 0 {
		return "", errors.NewConnectionError(host, port, fmt.Errorf("no IP addresses found for %s", host))
	}

	// Use the first address
	return net.JoinHostPort(addrs[0].IP.String(), strconv.Itoa(port)), nil
}

func (t *Transport) dialSOCKS5(ctx context.Context, config Config, timeout time.Duration, timer *timing.Timer) (net.Conn, error) {
	p := config.Proxy

	var auth *proxy.Auth
	if p.Username != "" {
		auth = &proxy.Auth{User: p.Username, Password: p.Password}
	}

	dialer, err := proxy.SOCKS5("tcp", p.Address(), auth, &net.Dialer{Timeout: timeout})
	if err != nil {
		return nil, errors.NewConnectionError(p.Host, p.Port, err)
	}

	defer timer.Begin(timing.PhaseTCP)()

	target := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	var conn net.Conn
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		conn, err = cd.DialContext(ctx, "tcp", target)
	} else {
		conn, err = dialer.Dial("tcp", target)
	}
	if err != nil {
		return nil, connectError(p.Host, p.Port, timeout, err)
	}
	return conn, nil
}

func (t *Transport) upgradeTLS(ctx context.Context, conn net.Conn, config Config, timeout time.Duration, timer *timing.Timer) (*tls.Conn, error) {
	defer timer.Begin(timing.PhaseTLS)()

	tlsCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	profile := config.TLSProfile
	if profile.Min == 0 {
		profile = tlsconfig.ProfileSecure
	}

	// The handshake always names the target, even when connected to a proxy.
	tlsConn := tls.Client(conn, tlsconfig.ClientConfig(config.Host, config.InsecureTLS, profile))
	if err := tlsConn.HandshakeContext(tlsCtx); err != nil {
		if isTimeout(err) {
			return nil, errors.NewTimeoutError("TLS handshake with "+config.Host, timeout, err)
		}
		return nil, errors.NewTLSError(config.Host, config.Port, err)
	}
	return tlsConn, nil
}

func connectError(host string, port int, timeout time.Duration, err error) error {
	if isTimeout(err) {
		return errors.NewTimeoutError(fmt.Sprintf("connect to %s:%d", host, port), timeout, err)
	}
	return errors.NewConnectionError(host, port, err)
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
