package hubclient

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

// ProxyConfig is the HTTP proxy the build host is configured with.
// NoProxyHosts holds host patterns such as "*.internal.example.com".
type ProxyConfig struct {
	Host         string
	Port         int
	NoProxyHosts []string
}

// Enabled reports whether a proxy is configured at all.
func (p ProxyConfig) Enabled() bool {
	return p.Host != "" && p.Port != 0
}

// URL returns the proxy URL.
func (p ProxyConfig) URL() *url.URL {
	return &url.URL{Scheme: "http", Host: net.JoinHostPort(p.Host, strconv.Itoa(p.Port))}
}

// Bypass reports whether requests to host must not go through the proxy.
func (p ProxyConfig) Bypass(host string) (bool, error) {
	host = strings.ToLower(host)
	for _, pattern := range p.NoProxyHosts {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return false, fmt.Errorf("invalid no-proxy host pattern %q: %w", pattern, err)
		}
		if g.Match(host) {
			return true, nil
		}
	}
	return false, nil
}

// ParseNoProxyHosts splits a comma or newline separated pattern list.
func ParseNoProxyHosts(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	patterns := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			patterns = append(patterns, f)
		}
	}
	return patterns
}
