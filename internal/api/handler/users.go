package handler

import (
	"net/http"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/request"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
)

type Users struct {
	users            *core.UserService
	keys             *core.APIKeyService
	defaultRateLimit int
}

func NewUsers(users *core.UserService, keys *core.APIKeyService, defaultRateLimit int) *Users {
	return &Users{users: users, keys: keys, defaultRateLimit: defaultRateLimit}
}

// Register handles POST /dashboard/register. A first API key is minted with
// the account so every user always has at least one key.
func (h *Users) Register(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUser
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	key, rawKey, err := h.keys.Create(r.Context(), user.ID, "default", h.defaultRateLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"user": user,
		"key":  createdKey{APIKey: key, Key: rawKey},
	})
}
