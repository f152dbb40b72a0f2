package httpserver

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"go-holder-cache/internal/metrics"
	"go-holder-cache/internal/ratelimit"
)

// rateLimitMiddleware enforces the per-identity token bucket on the public
// API. A denied request gets a 429 with Retry-After; being rate limited is a
// policy outcome, never swallowed into a cache miss.
func rateLimitMiddleware(limiter *ratelimit.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := clientIdentity(r)
			decision := limiter.Allowed(identity)
			if !decision.Allowed {
				metrics.RateLimitRejections.Inc()
				logger.Debug("Request rate limited", zap.String("identity", identity))

				retryAfter := int(decision.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSONError(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIdentity keys the rate limiter by originating client IP, trusting the
// first X-Forwarded-For hop when present.
func clientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
