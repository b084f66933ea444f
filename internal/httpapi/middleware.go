package httpapi

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"citechat/internal/metrics"
	"citechat/internal/ratelimit"
)

// anonymousClient buckets requests carrying no identifiable address into
// one shared counter rather than exempting them from limiting.
const anonymousClient = "anonymous"

// ClientID derives the rate-limit identifier for a request: the first hop
// of X-Forwarded-For when present, else the connection's remote host.
func ClientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if i := strings.IndexByte(xff, ','); i >= 0 {
			first = xff[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return anonymousClient
}

// RateLimit wraps a handler with the shared request limiter. Rejected
// requests get a 429 before any scraping or model work happens.
func RateLimit(limiter *ratelimit.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientID(r)
			if !limiter.Admit(r.Context(), clientID) {
				metrics.ChatRequests.WithLabelValues("rate_limited").Inc()
				writeJSON(w, http.StatusTooManyRequests, errorResponse{
					Error: "Too many requests",
				}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
