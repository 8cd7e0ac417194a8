package appMiddleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
)

// RateLimitByIP allows requestsPerMinute requests per client IP and answers the
// rest with 429. A non-positive limit disables the check.
func RateLimitByIP(requestsPerMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("req_id", middleware.GetReqID(r.Context())),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)
			api.ErrorResponse(w, r, http.StatusTooManyRequests, "Too many requests, please try again later")
		}),
	)
}
