package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/WhileEndless/go-rawfetch/pkg/client"
	"github.com/WhileEndless/go-rawfetch/pkg/constants"
)

const sampleYAML = `
timeout: 3s
max_content: 2048
user_agent: "crawler/2.0"
render_content_types:
  - text/html
proxy:
  enabled: true
  type: socks5
  host: 10.0.0.5
  port: 1080
  exceptions:
    - intranet.local
tls_profile: modern
`

func TestParseOverlaysDefaults(t *testing.T) {
	cfg := client.DefaultConfig()
	if err := Parse([]byte(sampleYAML), &cfg); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.Timeout)
	}
	if cfg.MaxContent != 2048 {
		t.Errorf("expected max content 2048, got %d", cfg.MaxContent)
	}
	if cfg.UserAgent != "crawler/2.0" {
		t.Errorf("unexpected user agent %q", cfg.UserAgent)
	}
	if cfg.Accept != constants.DefaultAccept {
		t.Errorf("unset keys should keep defaults, got Accept %q", cfg.Accept)
	}
	if !cfg.Proxy.Enabled || cfg.Proxy.Type != "socks5" || cfg.Proxy.Host != "10.0.0.5" || cfg.Proxy.Port != 1080 {
		t.Errorf("unexpected proxy settings %+v", cfg.Proxy)
	}
	if len(cfg.Proxy.Exceptions) != 1 || cfg.Proxy.Exceptions[0] != "intranet.local" {
		t.Errorf("unexpected proxy exceptions %v", cfg.Proxy.Exceptions)
	}
	if cfg.TLSProfile != "modern" {
		t.Errorf("unexpected TLS profile %q", cfg.TLSProfile)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	cfg := client.DefaultConfig()
	if err := Parse([]byte("max_contnet: 10\n"), &cfg); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg := client.DefaultConfig()
	if err := Parse(nil, &cfg); err != nil {
		t.Fatalf("empty document should be accepted, got %v", err)
	}
	if cfg.Timeout != constants.DefaultTimeout {
		t.Errorf("defaults should be untouched, got timeout %v", cfg.Timeout)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvUserAgent, "env-agent")
	t.Setenv(EnvProxy, "http://proxy.local:3128")
	t.Setenv(EnvProxyExceptions, "a.local, ,b.local")
	t.Setenv(EnvTimeout, "750ms")
	t.Setenv(EnvMaxContent, "-1")

	cfg := client.DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("apply env failed: %v", err)
	}

	if cfg.UserAgent != "env-agent" {
		t.Errorf("unexpected user agent %q", cfg.UserAgent)
	}
	if !cfg.Proxy.Enabled || cfg.Proxy.Host != "proxy.local" || cfg.Proxy.Port != 3128 {
		t.Errorf("unexpected proxy %+v", cfg.Proxy)
	}
	if len(cfg.Proxy.Exceptions) != 2 {
		t.Errorf("expected 2 exceptions, got %v", cfg.Proxy.Exceptions)
	}
	if cfg.Timeout != 750*time.Millisecond {
		t.Errorf("unexpected timeout %v", cfg.Timeout)
	}
	if cfg.MaxContent != -1 {
		t.Errorf("unexpected max content %d", cfg.MaxContent)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvProxy, "ftp://proxy.local"},
		{EnvTimeout, "soon"},
		{EnvMaxContent, "big"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := client.DefaultConfig()
			if err := ApplyEnv(&cfg); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawfetch.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvUserAgent, "override/1.0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.UserAgent != "override/1.0" {
		t.Errorf("environment should win over the file, got %q", cfg.UserAgent)
	}
	if cfg.MaxContent != 2048 {
		t.Errorf("file values should apply, got max content %d", cfg.MaxContent)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
