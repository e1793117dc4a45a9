package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

type contextKey string

const (
	keyIdentityKey contextKey = "api_key_identity"
	userKey        contextKey = "dashboard_user"
)

// KeyIdentity holds the authenticated key's fields the request path needs.
type KeyIdentity struct {
	ID        string
	UserID    string
	Name      string
	RateLimit int
}

// GetIdentity returns the authenticated key identity from the context, or
// nil outside the /v1 auth middleware.
func GetIdentity(ctx context.Context) *KeyIdentity {
	identity, _ := ctx.Value(keyIdentityKey).(*KeyIdentity)
	return identity
}

// GetUser returns the dashboard user from the context, or nil outside the
// dashboard auth middleware.
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

const touchTimeout = 5 * time.Second

// Auth validates the Authorization bearer token against the key store.
// On success the key identity is attached to the context and last_used_at is
// touched off the request path.
func Auth(keys *core.APIKeyService, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteError(w, http.StatusUnauthorized, response.CodeUnauthenticated,
					"Missing Authorization header. Pass your API key as 'Authorization: Bearer sk-...'.")
				return
			}

			rawKey, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || rawKey == "" {
				response.WriteError(w, http.StatusUnauthorized, response.CodeUnauthenticated,
					"Malformed Authorization header. Expected 'Bearer sk-...'.")
				return
			}

			key, err := keys.GetByRawKey(r.Context(), rawKey)
			if errors.Is(err, core.ErrNotFound) {
				response.WriteError(w, http.StatusUnauthorized, response.CodeInvalidAPIKey,
					"Invalid API key.")
				return
			}
			if err != nil {
				logger.Error().Err(err).Msg("api key lookup failed")
				response.WriteError(w, http.StatusInternalServerError, response.CodeInternalError,
					"Internal error.")
				return
			}
			if !key.IsActive {
				response.WriteError(w, http.StatusForbidden, response.CodeKeyDeactivated,
					"This API key has been deactivated.")
				return
			}

			identity := &KeyIdentity{
				ID:        key.ID,
				UserID:    key.UserID,
				Name:      key.Name,
				RateLimit: key.RateLimit,
			}

			go func(id string) {
				ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
				defer cancel()
				if err := keys.TouchLastUsed(ctx, id); err != nil {
					logger.Warn().Err(err).Str("api_key_id", id).Msg("failed to touch last_used_at")
				}
			}(key.ID)

			ctx := context.WithValue(r.Context(), keyIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DashboardAuth validates basic-auth credentials against the users table and
// attaches the user to the context.
func DashboardAuth(users *core.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="dashboard"`)
				response.WriteError(w, http.StatusUnauthorized, response.CodeUnauthenticated,
					"Dashboard credentials required.")
				return
			}

			user, err := users.Authenticate(r.Context(), email, password)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, response.CodeUnauthenticated,
					"Invalid email or password.")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a context carrying the given key identity. Used by
// handler tests.
func WithIdentity(ctx context.Context, identity *KeyIdentity) context.Context {
	return context.WithValue(ctx, keyIdentityKey, identity)
}

// WithUser returns a context carrying the given dashboard user. Used by
// handler tests.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
