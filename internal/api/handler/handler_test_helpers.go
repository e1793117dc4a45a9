package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	mw "github.com/SalimBinYousuf1/openai-api-platform/internal/api/middleware"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/response"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/provider"
	"github.com/go-chi/chi/v5"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withIdentity injects an authenticated key identity into the request context.
func withIdentity(r *http.Request) *http.Request {
	identity := &mw.KeyIdentity{ID: "test-key-1", UserID: "test-user-1", Name: "test", RateLimit: 100}
	return r.WithContext(mw.WithIdentity(r.Context(), identity))
}

// decodeErrorResponse parses the JSON error envelope.
func decodeErrorResponse(rec *httptest.ResponseRecorder) response.ErrorDetail {
	var body response.ErrorBody
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Error
}

// testRecorder returns a usage recorder that only buffers; nothing drains it
// in tests.
func testRecorder() *core.Recorder {
	return core.NewRecorder(nil, zerolog.Nop(), 64)
}

// stubProvider is a canned-response provider.Client.
type stubProvider struct {
	chatResp    openai.ChatCompletionResponse
	chatErr     error
	chunks      []openai.ChatCompletionStreamResponse
	streamErr   error
	imageResp   openai.ImageResponse
	imageErr    error
	embResp     openai.EmbeddingResponse
	embErr      error
	modResp     openai.ModerationResponse
	modErr      error
	lastChatReq openai.ChatCompletionRequest
}

func (s *stubProvider) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastChatReq = req
	return s.chatResp, s.chatErr
}

func (s *stubProvider) CreateChatCompletionStream(_ context.Context, req openai.ChatCompletionRequest) (provider.ChatStream, error) {
	s.lastChatReq = req
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	return &stubStream{chunks: s.chunks}, nil
}

func (s *stubProvider) CreateImage(_ context.Context, _ openai.ImageRequest) (openai.ImageResponse, error) {
	return s.imageResp, s.imageErr
}

func (s *stubProvider) CreateEmbeddings(_ context.Context, _ openai.EmbeddingRequest) (openai.EmbeddingResponse, error) {
	return s.embResp, s.embErr
}

func (s *stubProvider) Moderations(_ context.Context, _ openai.ModerationRequest) (openai.ModerationResponse, error) {
	return s.modResp, s.modErr
}

type stubStream struct {
	chunks []openai.ChatCompletionStreamResponse
	pos    int
}

func (s *stubStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	if s.pos >= len(s.chunks) {
		return openai.ChatCompletionStreamResponse{}, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *stubStream) Close() error { return nil }
