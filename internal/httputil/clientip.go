// Package httputil has small HTTP request helpers shared by handlers and
// middleware.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the originating client address, honoring proxy headers.
// X-Forwarded-For may carry a chain; the first hop is the client.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
