package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/catalog"
)

// modelObject is the OpenAI model object shape.
type modelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type modelList struct {
	Object string        `json:"object"`
	Data   []modelObject `json:"data"`
}

// modelCreated is a fixed timestamp for catalog entries; the catalog is
// compiled in, not provisioned, so there is no real creation time.
const modelCreated int64 = 1700000000

type Models struct{}

func NewModels() *Models {
	return &Models{}
}

// List handles GET /v1/models.
func (h *Models) List(w http.ResponseWriter, r *http.Request) {
	entries := catalog.List()
	list := modelList{Object: "list", Data: make([]modelObject, 0, len(entries))}
	for _, m := range entries {
		list.Data = append(list.Data, modelObject{
			ID:      m.ID,
			Object:  "model",
			Created: modelCreated,
			OwnedBy: m.OwnedBy,
		})
	}
	response.WriteJSON(w, http.StatusOK, list)
}

// Get handles GET /v1/models/{model}.
func (h *Models) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "model")
	m, ok := catalog.Lookup(id)
	if !ok {
		response.WriteError(w, http.StatusNotFound, response.CodeNotFound,
			fmt.Sprintf("The model %q does not exist.", id))
		return
	}
	response.WriteJSON(w, http.StatusOK, modelObject{
		ID:      m.ID,
		Object:  "model",
		Created: modelCreated,
		OwnedBy: m.OwnedBy,
	})
}
