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

const imagesEndpoint = "/v1/images/generations"

type Images struct {
	upstream provider.Client
	recorder *core.Recorder
	timeout  time.Duration
}

func NewImages(upstream provider.Client, recorder *core.Recorder, timeout time.Duration) *Images {
	return &Images{upstream: upstream, recorder: recorder, timeout: timeout}
}

// Create handles POST /v1/images/generations.
func (h *Images) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req request.ImageGeneration
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
		return
	}

	modelName := req.Model
	if modelName == "" {
		modelName = "dall-e-3"
	}
	entry, ok := catalog.Lookup(modelName)
	if !ok || entry.Capability != catalog.CapabilityImage {
		response.WriteError(w, http.StatusNotFound, response.CodeNotFound,
			fmt.Sprintf("The model %q does not exist or does not support image generation.", modelName))
		return
	}

	n := req.N
	if n == 0 {
		n = 1
	}

	upstreamReq := openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          entry.UpstreamID,
		N:              n,
		Size:           req.Size,
		ResponseFormat: req.ResponseFormat,
		User:           req.User,
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.upstream.CreateImage(ctx, upstreamReq)
	if err != nil {
		status := writeUpstreamError(w, err)
		h.recorder.Record(usageRow(r, imagesEndpoint, modelName, start, status))
		return
	}

	if resp.Created == 0 {
		resp.Created = time.Now().Unix()
	}

	row := usageRow(r, imagesEndpoint, modelName, start, http.StatusOK)
	row.CostUSD = catalog.ImageCost(modelName, len(resp.Data))
	h.recorder.Record(row)

	response.WriteJSON(w, http.StatusOK, resp)
}
