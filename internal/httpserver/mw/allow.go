package mw

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/MrSnakeDoc/sightings/internal/logger"
)

// AllowOnlyCIDRS restricts a route to the given IPs/CIDRs, matched against
// the connection's remote address. An empty or fully invalid list does NOT
// filter (passthrough).
func AllowOnlyCIDRS(allowed []string, log logger.Logger) func(http.Handler) http.Handler {
	prefixes := ParsePrefixes(allowed, log)
	if len(prefixes) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowAddr(prefixes, r.RemoteAddr) {
				log.Debug("request rejected by CIDR allow-list",
					logger.String("remote_addr", r.RemoteAddr),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ParsePrefixes turns "10.0.0.0/8" and "192.168.1.5" style entries into
// prefixes. Invalid entries are logged and skipped.
func ParsePrefixes(list []string, log logger.Logger) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(list))
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
			continue
		}
		log.Warn("ignoring invalid allowed CIDR", logger.String("value", s))
	}
	return prefixes
}

func allowAddr(prefixes []netip.Prefix, remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
