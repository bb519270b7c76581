package client

import (
	"strings"
	"time"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/transport"
)

// ProxySettings controls upstream proxying.
type ProxySettings struct {
	Enabled bool `yaml:"enabled"`

	transport.ProxyConfig `yaml:",inline"`

	// Exceptions lists hosts that are always fetched directly. An entry with
	// a leading dot also matches every subdomain.
	Exceptions []string `yaml:"exceptions"`
}

// Config controls how the Fetcher connects, what it sends and how much it reads.
type Config struct {
	// Timeout bounds the connect and every individual read or write.
	Timeout time.Duration `yaml:"timeout"`

	// MaxContent caps raw bodies in bytes. Zero or negative means unbounded.
	MaxContent int64 `yaml:"max_content"`

	Proxy ProxySettings `yaml:"proxy"`

	UserAgent      string `yaml:"user_agent"`
	AcceptLanguage string `yaml:"accept_language"`
	Accept         string `yaml:"accept"`

	// RenderContentTypes are matched case-insensitively as substrings of
	// Content-Type. A match hands the body to the configured renderer.
	RenderContentTypes []string `yaml:"render_content_types"`

	InsecureTLS bool `yaml:"insecure_tls"`
	// TLSProfile names a minimum TLS profile: modern, secure or compatible.
	TLSProfile string `yaml:"tls_profile"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:            constants.DefaultTimeout,
		MaxContent:         constants.DefaultMaxContent,
		UserAgent:          constants.DefaultUserAgent,
		AcceptLanguage:     constants.DefaultAcceptLanguage,
		Accept:             constants.DefaultAccept,
		RenderContentTypes: append([]string(nil), constants.DefaultRenderContentTypes...),
		Proxy: ProxySettings{
			ProxyConfig: transport.ProxyConfig{Type: transport.ProxyHTTP},
		},
	}
}

// proxyFor returns the proxy to use for host, or nil for a direct connection.
func (c *Config) proxyFor(host string) *transport.ProxyConfig {
	if !c.Proxy.Enabled || c.Proxy.Host == "" {
		return nil
	}
	host = strings.ToLower(host)
	for _, exc := range c.Proxy.Exceptions {
		exc = strings.ToLower(strings.TrimSpace(exc))
		if exc == "" {
			continue
		}
		if host == exc || (strings.HasPrefix(exc, ".") && strings.HasSuffix(host, exc)) {
			return nil
		}
	}
	p := c.Proxy.ProxyConfig
	if p.Type == "" {
		p.Type = transport.ProxyHTTP
	}
	return &p
}
