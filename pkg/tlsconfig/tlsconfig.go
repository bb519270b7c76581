// Package tlsconfig provides helpers and constants for TLS configuration.
package tlsconfig

import (
	"crypto/tls"
	"fmt"
	"strings"
)

// VersionProfile is a pre-configured TLS version range.
type VersionProfile struct {
	Name        string
	Min         uint16
	Max         uint16
	Description string
}

var (
	// ProfileModern - TLS 1.3 only (most secure, may not work with all servers)
	ProfileModern = VersionProfile{
		Name:        "modern",
		Min:         tls.VersionTLS13,
		Max:         tls.VersionTLS13,
		Description: "TLS 1.3 only - maximum security, modern servers only",
	}

	// ProfileSecure - TLS 1.2 and 1.3 (default)
	ProfileSecure = VersionProfile{
		Name:        "secure",
		Min:         tls.VersionTLS12,
		Max:         tls.VersionTLS13,
		Description: "TLS 1.2+ - secure and widely compatible",
	}

	// ProfileCompatible - TLS 1.0 through 1.3. Crawlers meet a lot of old servers.
	ProfileCompatible = VersionProfile{
		Name:        "compatible",
		Min:         tls.VersionTLS10,
		Max:         tls.VersionTLS13,
		Description: "TLS 1.0+ - maximum compatibility, includes deprecated versions",
	}
)

// ProfileByName looks up a profile by its Name. An empty name selects ProfileSecure.
func ProfileByName(name string) (VersionProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileSecure.Name:
		return ProfileSecure, nil
	case ProfileModern.Name:
		return ProfileModern, nil
	case ProfileCompatible.Name:
		return ProfileCompatible, nil
	}
	return VersionProfile{}, fmt.Errorf("unknown TLS profile %q (must be modern, secure or compatible)", name)
}

// GetVersionName returns human-readable name for a TLS version
func GetVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return "Unknown"
	}
}

// ClientConfig builds the client-mode tls.Config used for the upgrade.
func ClientConfig(serverName string, insecure bool, profile VersionProfile) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: insecure,
		MinVersion:         profile.Min,
		MaxVersion:         profile.Max,
		NextProtos:         []string{"http/1.1"},
	}
}
