package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/request"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/catalog"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/provider"
)

const moderationsEndpoint = "/v1/moderations"

type Moderations struct {
	upstream provider.Client
	recorder *core.Recorder
	timeout  time.Duration
}

func NewModerations(upstream provider.Client, recorder *core.Recorder, timeout time.Duration) *Moderations {
	return &Moderations{upstream: upstream, recorder: recorder, timeout: timeout}
}

// Create handles POST /v1/moderations.
func (h *Moderations) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req request.Moderation
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
		return
	}

	modelName := req.Model
	if modelName == "" {
		modelName = "omni-moderation-latest"
	}
	entry, ok := catalog.Lookup(modelName)
	if !ok || entry.Capability != catalog.CapabilityModeration {
		response.WriteError(w, http.StatusNotFound, response.CodeNotFound,
			fmt.Sprintf("The model %q does not exist or does not support moderation.", modelName))
		return
	}

	upstreamReq := openai.ModerationRequest{
		Input: req.Input,
		Model: entry.UpstreamID,
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.upstream.Moderations(ctx, upstreamReq)
	if err != nil {
		status := writeUpstreamError(w, err)
		h.recorder.Record(usageRow(r, moderationsEndpoint, modelName, start, status))
		return
	}

	h.recorder.Record(usageRow(r, moderationsEndpoint, modelName, start, http.StatusOK))

	response.WriteJSON(w, http.StatusOK, resp)
}
