// Package config loads fetcher configuration from YAML files and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/WhileEndless/go-rawfetch/pkg/client"
)

// Environment variables read by ApplyEnv.
const (
	EnvUserAgent       = "RAWFETCH_USER_AGENT"
	EnvProxy           = "RAWFETCH_PROXY"
	EnvProxyExceptions = "RAWFETCH_PROXY_EXCEPTIONS"
	EnvTimeout         = "RAWFETCH_TIMEOUT"
	EnvMaxContent      = "RAWFETCH_MAX_CONTENT"
)

// Load returns the default configuration overlaid with the YAML file at path
// (skipped when path is empty) and then with the environment.
func Load(path string) (client.Config, error) {
	cfg := client.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from data keep their current value.
func Parse(data []byte, cfg *client.Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document leaves cfg untouched.
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides cfg with any RAWFETCH_* variables that are set.
func ApplyEnv(cfg *client.Config) error {
	cfg.UserAgent = envOr(cfg.UserAgent, os.Getenv(EnvUserAgent))

	if raw := strings.TrimSpace(os.Getenv(EnvProxy)); raw != "" {
		proxy, err := client.ParseProxyURL(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProxy, err)
		}
		cfg.Proxy.Enabled = true
		cfg.Proxy.ProxyConfig = *proxy
	}

	if raw := strings.TrimSpace(os.Getenv(EnvProxyExceptions)); raw != "" {
		cfg.Proxy.Exceptions = splitCSV(raw)
	}

	if raw := strings.TrimSpace(os.Getenv(EnvTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}

	if raw := strings.TrimSpace(os.Getenv(EnvMaxContent)); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxContent, err)
		}
		cfg.MaxContent = n
	}

	return nil
}

func envOr(existing, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return existing
	}
	return value
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
