package ratelimit

import (
	"net/http"

	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/internal/identity"
	"github.com/contractforge/registry/internal/telemetry"
)

// Middleware admits or rejects requests through limiter, selecting a bucket
// via ResolveBucket and writing X-RateLimit-*/Retry-After headers on every
// response. healthPaths marks routes that are always bucketed as health.
func Middleware(limiter *Limiter, overrides map[string]int, healthPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isHealth := healthPaths[r.URL.Path]
			isAuthenticated := identity.FromContext(r.Context()) != nil

			bucket, overrideLimit, override := ResolveBucket(r, overrides, isHealth, isAuthenticated)
			res := limiter.Allow(r.Context(), ClientIP(r), bucket, overrideLimit, override)
			WriteHeaders(w, res)

			if !res.Allowed {
				telemetry.RateLimitRejectedTotal.WithLabelValues(string(bucket)).Inc()
				httpserver.RespondError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
