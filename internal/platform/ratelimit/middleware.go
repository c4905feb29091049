package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/httputil"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/middleware/metadata"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/requestcontext"
)

// Middleware limits requests per client IP. Limiter errors fail open.
func Middleware(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				ip = metadata.ClientIPFromRequest(r)
			}

			result, err := limiter.Allow(ctx, "ip:"+ip)
			if err != nil {
				logger.WarnContext(ctx, "rate limit check failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteErrorCode(w, http.StatusTooManyRequests, "rate_limit_exceeded",
					"Too many requests from this client. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
