package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the client address resolved by RequestID. Outside that
// middleware it falls back to the socket peer and never reads
// X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if info, ok := r.Context().Value(requestInfoKey).(requestInfo); ok && info.clientIP != "" {
		return info.clientIP
	}
	return remoteHost(r)
}

// clientIP honours X-Forwarded-For only when the peer is a trusted proxy.
// The header is read right to left and the first hop that is not a trusted
// proxy wins; anything left of it was written by the client.
func (m *Middleware) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !m.trusted(peer) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			break
		}
		client = hop
		if !m.trusted(hop) {
			break
		}
	}
	return client
}

func (m *Middleware) trusted(ip string) bool {
	if len(m.proxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
