package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/request"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/catalog"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/platform"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/provider"
)

const chatEndpoint = "/v1/chat/completions"

type Chat struct {
	upstream provider.Client
	recorder *core.Recorder
	timeout  time.Duration
}

func NewChat(upstream provider.Client, recorder *core.Recorder, timeout time.Duration) *Chat {
	return &Chat{upstream: upstream, recorder: recorder, timeout: timeout}
}

// Create handles POST /v1/chat/completions, both buffered and streamed.
func (h *Chat) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req request.ChatCompletion
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
		return
	}

	entry, ok := catalog.Lookup(req.Model)
	if !ok || entry.Capability != catalog.CapabilityChat {
		response.WriteError(w, http.StatusNotFound, response.CodeNotFound,
			fmt.Sprintf("The model %q does not exist or does not support chat completions.", req.Model))
		return
	}

	upstreamReq := openai.ChatCompletionRequest{
		Model:    entry.UpstreamID,
		Messages: req.Messages,
		N:        req.N,
		Stop:     req.Stop,
		User:     req.User,
	}
	if req.Temperature != nil {
		upstreamReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		upstreamReq.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		upstreamReq.TopP = *req.TopP
	}

	if req.Stream {
		h.stream(w, r, req.Model, upstreamReq, start)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.upstream.CreateChatCompletion(ctx, upstreamReq)
	if err != nil {
		status := writeUpstreamError(w, err)
		h.recorder.Record(usageRow(r, chatEndpoint, req.Model, start, status))
		return
	}

	// Fill in fields the upstream may omit so responses are always complete.
	if resp.ID == "" {
		resp.ID = platform.NewObjectID("chatcmpl")
	}
	if resp.Created == 0 {
		resp.Created = time.Now().Unix()
	}
	resp.Model = req.Model
	if resp.Usage.TotalTokens == 0 {
		resp.Usage.TotalTokens = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
	}

	row := usageRow(r, chatEndpoint, req.Model, start, http.StatusOK)
	row.PromptTokens = resp.Usage.PromptTokens
	row.CompletionTokens = resp.Usage.CompletionTokens
	row.TotalTokens = resp.Usage.TotalTokens
	row.CostUSD = catalog.Cost(req.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	h.recorder.Record(row)

	response.WriteJSON(w, http.StatusOK, resp)
}

// stream relays upstream chunks as server-sent events. Once the first chunk
// is written the HTTP status is committed, so mid-stream failures end the
// stream instead of producing an error body.
func (h *Chat) stream(w http.ResponseWriter, r *http.Request, publicModel string, upstreamReq openai.ChatCompletionRequest, start time.Time) {
	logger := zerolog.Ctx(r.Context())
	upstreamReq.Stream = true

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stream, err := h.upstream.CreateChatCompletionStream(ctx, upstreamReq)
	if err != nil {
		status := writeUpstreamError(w, err)
		h.recorder.Record(usageRow(r, chatEndpoint, publicModel, start, status))
		return
	}
	defer stream.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.WriteError(w, http.StatusInternalServerError, response.CodeInternalError,
			"Streaming unsupported by this server.")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	streamID := platform.NewObjectID("chatcmpl")
	created := time.Now().Unix()
	var contentLen int

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("chat stream interrupted")
			break
		}

		if chunk.ID == "" {
			chunk.ID = streamID
		}
		if chunk.Created == 0 {
			chunk.Created = created
		}
		chunk.Model = publicModel
		for _, c := range chunk.Choices {
			contentLen += len(c.Delta.Content)
		}

		data, err := json.Marshal(chunk)
		if err != nil {
			logger.Error().Err(err).Msg("marshal stream chunk")
			break
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	// Streamed responses carry no usage block, so approximate completion
	// tokens from the relayed text (~4 chars per token).
	row := usageRow(r, chatEndpoint, publicModel, start, http.StatusOK)
	row.CompletionTokens = contentLen / 4
	row.TotalTokens = row.CompletionTokens
	row.CostUSD = catalog.Cost(publicModel, 0, row.CompletionTokens)
	h.recorder.Record(row)
}
