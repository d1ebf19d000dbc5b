package gateway

import (
	"net"
	"net/http"
	"strings"
)

// extractRealClientIP prefers proxy headers over the socket address.
func extractRealClientIP(r *http.Request) string {
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return normalizeIP(realIP)
	}
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		// first entry is the original client
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return normalizeIP(first)
		}
	}
	return normalizeIP(r.RemoteAddr)
}

// normalizeIP strips the port and folds IPv4-mapped IPv6 addresses.
func normalizeIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if ip := net.ParseIP(host); ip != nil {
		if ipv4 := ip.To4(); ipv4 != nil {
			return ipv4.String()
		}
		return ip.String()
	}
	return host
}
