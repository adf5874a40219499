package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Resolver extracts the client IP used for rate limiting and logging.
//
// With TrustProxy unset only r.RemoteAddr is used, which is right when
// traffic reaches the app directly. Behind a reverse proxy that sets
// X-Forwarded-For, set TrustProxy so the first hop is used instead.
type Resolver struct {
	TrustProxy bool
}

func (res *Resolver) ClientIP(r *http.Request) string {
	if res != nil && res.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
		if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xr) != nil {
			return xr
		}
	}
	return RealClientIP(r)
}

// RealClientIP returns the client IP from r.RemoteAddr only (no proxy headers).
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
