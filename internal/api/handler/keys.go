package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/middleware"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/request"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

type Keys struct {
	svc              *core.APIKeyService
	usage            *core.UsageService
	defaultRateLimit int
}

func NewKeys(svc *core.APIKeyService, usage *core.UsageService, defaultRateLimit int) *Keys {
	return &Keys{svc: svc, usage: usage, defaultRateLimit: defaultRateLimit}
}

// createdKey is the one response that ever carries the raw secret.
type createdKey struct {
	*model.APIKey
	Key string `json:"key"`
}

// List handles GET /dashboard/keys.
func (h *Keys) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	keys, err := h.svc.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// Create handles POST /dashboard/keys. The raw secret is returned once and
// never retrievable afterwards.
func (h *Keys) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
		return
	}

	rateLimit := req.RateLimit
	if rateLimit == 0 {
		rateLimit = h.defaultRateLimit
	}

	key, rawKey, err := h.svc.Create(r.Context(), user.ID, req.Name, rateLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, createdKey{APIKey: key, Key: rawKey})
}

// ownedKey loads the key and enforces that it belongs to the dashboard user.
// Other users' keys read as not found.
func (h *Keys) ownedKey(w http.ResponseWriter, r *http.Request) *model.APIKey {
	user := middleware.GetUser(r.Context())

	key, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return nil
	}
	if key.UserID != user.ID {
		response.WriteError(w, http.StatusNotFound, response.CodeNotFound, "Resource not found.")
		return nil
	}
	return key
}

// Get handles GET /dashboard/keys/{id}.
func (h *Keys) Get(w http.ResponseWriter, r *http.Request) {
	key := h.ownedKey(w, r)
	if key == nil {
		return
	}
	response.WriteJSON(w, http.StatusOK, key)
}

// Update handles PATCH /dashboard/keys/{id}, toggling the active flag.
func (h *Keys) Update(w http.ResponseWriter, r *http.Request) {
	key := h.ownedKey(w, r)
	if key == nil {
		return
	}

	var req request.UpdateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
		return
	}

	if err := h.svc.SetActive(r.Context(), key.ID, *req.IsActive); err != nil {
		writeServiceError(w, err)
		return
	}
	key.IsActive = *req.IsActive
	response.WriteJSON(w, http.StatusOK, key)
}

// Delete handles DELETE /dashboard/keys/{id}. A user's last key cannot be
// deleted.
func (h *Keys) Delete(w http.ResponseWriter, r *http.Request) {
	key := h.ownedKey(w, r)
	if key == nil {
		return
	}

	if err := h.svc.Delete(r.Context(), key.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Usage handles GET /dashboard/keys/{id}/usage, the raw ledger rows for one
// key. Deactivated keys keep their history.
func (h *Keys) Usage(w http.ResponseWriter, r *http.Request) {
	key := h.ownedKey(w, r)
	if key == nil {
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest,
				"limit must be an integer between 1 and 1000.")
			return
		}
		limit = n
	}

	rows, err := h.usage.ListByKey(r.Context(), key.ID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"usage": rows})
}
