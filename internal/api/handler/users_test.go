package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsersRegister_InvalidEmail(t *testing.T) {
	h := NewUsers(nil, nil, 100)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/dashboard/register", map[string]any{
		"email":    "not-an-email",
		"name":     "Test",
		"password": "secret-password",
	})

	h.Register(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersRegister_ShortPassword(t *testing.T) {
	h := NewUsers(nil, nil, 100)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/dashboard/register", map[string]any{
		"email":    "test@example.com",
		"name":     "Test",
		"password": "short",
	})

	h.Register(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
