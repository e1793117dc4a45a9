package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/ratelimit"
)

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
	keyID    string
	limit    int
}

func (s *stubLimiter) Check(_ context.Context, keyID string, limit int) (ratelimit.Decision, error) {
	s.keyID = keyID
	s.limit = limit
	return s.decision, s.err
}

func limitedRequest(t *testing.T, limiter ratelimit.Limiter) *httptest.ResponseRecorder {
	t.Helper()

	handler := RateLimit(limiter, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/v1/chat/completions", nil)
	req = req.WithContext(WithIdentity(req.Context(), &KeyIdentity{ID: "key-1", RateLimit: 100}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_Allowed(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{
		Allowed:   true,
		Limit:     100,
		Remaining: 99,
		ResetAt:   time.Now().Add(time.Hour),
	}}

	rec := limitedRequest(t, limiter)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "key-1", limiter.keyID)
	assert.Equal(t, 100, limiter.limit)
	assert.Equal(t, "100", rec.Header().Get("x-ratelimit-limit-requests"))
	assert.Equal(t, "99", rec.Header().Get("x-ratelimit-remaining-requests"))
}

func TestRateLimit_Denied(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{
		Allowed:   false,
		Limit:     100,
		Remaining: 0,
		ResetAt:   time.Now().Add(30 * time.Minute),
	}}

	rec := limitedRequest(t, limiter)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("x-ratelimit-remaining-requests"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
}

func TestRateLimit_BackendErrorFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}

	rec := limitedRequest(t, limiter)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_NoIdentity(t *testing.T) {
	handler := RateLimit(&stubLimiter{}, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
