package http

import (
	"net"
	"net/http"
	"strings"
)

// IPConfig controls which upstream proxies may set forwarding headers
type IPConfig struct {
	TrustedProxies []string // CIDR ranges
}

// ExtractClientIP resolves the client address for a request. Forwarding
// headers (X-Forwarded-For, X-Real-IP) are honored only when the direct peer
// sits inside a trusted proxy range; otherwise a client could spoof its
// address with a crafted header. Falls back to the socket peer address.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	peer := peerAddr(r)

	if config == nil || !withinTrustedRange(peer, config.TrustedProxies) {
		return peer
	}

	// X-Forwarded-For holds a comma-separated chain; the first parseable
	// entry is the originating client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, candidate := range strings.Split(xff, ",") {
			candidate = strings.TrimSpace(candidate)
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return peer
}

// peerAddr strips the port from RemoteAddr
func peerAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func withinTrustedRange(addr string, trustedProxies []string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			// Misconfigured ranges are ignored rather than fatal
			continue
		}
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}
