package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig limits requests per client IP over a sliding window.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// RateLimit rejects requests over the limit with 429 and a JSON error body.
// A non-positive Max disables limiting.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(cfg.Max, cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
		}),
	)
}
