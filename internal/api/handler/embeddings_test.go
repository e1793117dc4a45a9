package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingsCreate_MissingInput(t *testing.T) {
	h := NewEmbeddings(&stubProvider{}, testRecorder(), time.Second)
	rec := httptest.NewRecorder()
	r := withIdentity(newRequest(http.MethodPost, "/v1/embeddings", map[string]any{
		"model": "text-embedding-3-small",
	}))

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmbeddingsCreate_NonEmbeddingModel(t *testing.T) {
	h := NewEmbeddings(&stubProvider{}, testRecorder(), time.Second)
	rec := httptest.NewRecorder()
	r := withIdentity(newRequest(http.MethodPost, "/v1/embeddings", map[string]any{
		"model": "gpt-4o",
		"input": "hello",
	}))

	h.Create(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmbeddingsCreate_FillsTotalTokens(t *testing.T) {
	upstream := &stubProvider{embResp: openai.EmbeddingResponse{
		Object: "list",
		Data:   []openai.Embedding{{Index: 0, Embedding: []float32{0.1, 0.2}}},
		Usage:  openai.Usage{PromptTokens: 7},
	}}
	h := NewEmbeddings(upstream, testRecorder(), time.Second)
	rec := httptest.NewRecorder()
	r := withIdentity(newRequest(http.MethodPost, "/v1/embeddings", map[string]any{
		"model": "text-embedding-3-small",
		"input": "hello",
	}))

	h.Create(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp openai.EmbeddingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Usage.TotalTokens)
	assert.Len(t, resp.Data, 1)
}
