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

const embeddingsEndpoint = "/v1/embeddings"

type Embeddings struct {
	upstream provider.Client
	recorder *core.Recorder
	timeout  time.Duration
}

func NewEmbeddings(upstream provider.Client, recorder *core.Recorder, timeout time.Duration) *Embeddings {
	return &Embeddings{upstream: upstream, recorder: recorder, timeout: timeout}
}

// Create handles POST /v1/embeddings.
func (h *Embeddings) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req request.Embeddings
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
		return
	}

	entry, ok := catalog.Lookup(req.Model)
	if !ok || entry.Capability != catalog.CapabilityEmbedding {
		response.WriteError(w, http.StatusNotFound, response.CodeNotFound,
			fmt.Sprintf("The model %q does not exist or does not support embeddings.", req.Model))
		return
	}

	upstreamReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(entry.UpstreamID),
		Input: req.Input,
		User:  req.User,
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.upstream.CreateEmbeddings(ctx, upstreamReq)
	if err != nil {
		status := writeUpstreamError(w, err)
		h.recorder.Record(usageRow(r, embeddingsEndpoint, req.Model, start, status))
		return
	}

	if resp.Usage.TotalTokens == 0 {
		resp.Usage.TotalTokens = resp.Usage.PromptTokens
	}

	row := usageRow(r, embeddingsEndpoint, req.Model, start, http.StatusOK)
	row.PromptTokens = resp.Usage.PromptTokens
	row.TotalTokens = resp.Usage.TotalTokens
	row.CostUSD = catalog.Cost(req.Model, resp.Usage.PromptTokens, 0)
	h.recorder.Record(row)

	response.WriteJSON(w, http.StatusOK, resp)
}
