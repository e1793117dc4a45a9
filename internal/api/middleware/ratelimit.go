package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/ratelimit"
)

// RateLimit enforces the per-key request quota for the current window and
// sets the x-ratelimit-* headers on every response. A limiter backend error
// fails open: the request proceeds and the error is logged.
func RateLimit(limiter ratelimit.Limiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				response.WriteError(w, http.StatusInternalServerError, response.CodeInternalError,
					"Internal error.")
				return
			}

			decision, err := limiter.Check(r.Context(), identity.ID, identity.RateLimit)
			if err != nil {
				logger.Error().Err(err).Str("api_key_id", identity.ID).Msg("rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}

			response.SetRateLimitHeaders(w, decision)
			if !decision.Allowed {
				response.WriteRateLimited(w, decision.RetryAfter(time.Now()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
