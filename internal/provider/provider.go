// Package provider wraps the upstream vendor SDK behind an interface so
// handlers can be tested against a mock.
package provider

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// ChatStream yields streamed chat completion chunks.
type ChatStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// Client is the upstream inference surface used by the gateway handlers.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (ChatStream, error)
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequest) (openai.EmbeddingResponse, error)
	Moderations(ctx context.Context, req openai.ModerationRequest) (openai.ModerationResponse, error)
}

type openAIClient struct {
	client *openai.Client
}

// New creates a Client backed by the OpenAI API. baseURL overrides the API
// endpoint when non-empty (for proxies and compatible vendors).
func New(apiKey, baseURL string) Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIClient{client: openai.NewClientWithConfig(cfg)}
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return c.client.CreateChatCompletion(ctx, req)
}

func (c *openAIClient) CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (ChatStream, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return &chatStream{stream: stream}, nil
}

type chatStream struct {
	stream *openai.ChatCompletionStream
}

func (s *chatStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	return s.stream.Recv()
}

func (s *chatStream) Close() error {
	s.stream.Close()
	return nil
}

func (c *openAIClient) CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	return c.client.CreateImage(ctx, req)
}

func (c *openAIClient) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequest) (openai.EmbeddingResponse, error) {
	return c.client.CreateEmbeddings(ctx, req)
}

func (c *openAIClient) Moderations(ctx context.Context, req openai.ModerationRequest) (openai.ModerationResponse, error) {
	return c.client.Moderations(ctx, req)
}
