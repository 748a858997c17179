package middlewares

import (
	"net/http"
	"strconv"

	httperrors "github.com/damnyan/caxur/internal/http/errors"
	"github.com/damnyan/caxur/internal/observability/logger"
	"github.com/damnyan/caxur/internal/rate"
)

// WithRateLimit limita requests por IP de cliente usando el limiter dado.
// Si limiter es nil, el middleware es un no-op (rate limiting deshabilitado).
// Ante un fallo del backend del limiter se deja pasar el request (fail-open):
// preferimos degradar el límite antes que tirar el login completo.
func WithRateLimit(limiter rate.Limiter, keyPrefix string) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyPrefix + ":" + clientIP(r)

			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable, allowing request",
					logger.Op("WithRateLimit"),
					logger.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				}
				httperrors.WriteError(w, httperrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
