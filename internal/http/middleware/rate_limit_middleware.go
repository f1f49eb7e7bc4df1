package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/http/response"
)

// RateLimit wraps a handler chain with the distributed fixed-window limiter,
// keyed by client IP. Limiter backend errors deny the request: throttling is
// a restricting control and does not degrade open.
func RateLimit(limiter *RedisFixedWindowLimiter, scope string, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("%s:%s", scope, clientIP(r))
			allowed, retryAfter, err := limiter.Allow(r.Context(), key, perMinute, time.Minute)
			if err != nil {
				response.Error(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "rate limiter unavailable", nil)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
