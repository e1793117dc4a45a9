package request

import "github.com/sashabaranov/go-openai"

// ChatCompletion holds the request body for POST /v1/chat/completions.
type ChatCompletion struct {
	Model       string                         `json:"model" validate:"required"`
	Messages    []openai.ChatCompletionMessage `json:"messages" validate:"required,min=1"`
	Temperature *float32                       `json:"temperature,omitempty"`
	MaxTokens   *int                           `json:"max_tokens,omitempty" validate:"omitempty,min=1"`
	TopP        *float32                       `json:"top_p,omitempty"`
	N           int                            `json:"n,omitempty" validate:"omitempty,min=1,max=10"`
	Stream      bool                           `json:"stream,omitempty"`
	Stop        []string                       `json:"stop,omitempty"`
	User        string                         `json:"user,omitempty"`
}

// ImageGeneration holds the request body for POST /v1/images/generations.
type ImageGeneration struct {
	Prompt         string `json:"prompt" validate:"required,max=4000"`
	Model          string `json:"model,omitempty"`
	N              int    `json:"n,omitempty" validate:"omitempty,min=1,max=10"`
	Size           string `json:"size,omitempty" validate:"omitempty,oneof=256x256 512x512 1024x1024 1792x1024 1024x1792"`
	ResponseFormat string `json:"response_format,omitempty" validate:"omitempty,oneof=url b64_json"`
	User           string `json:"user,omitempty"`
}

// Embeddings holds the request body for POST /v1/embeddings.
type Embeddings struct {
	Model string `json:"model" validate:"required"`
	Input any    `json:"input" validate:"required"`
	User  string `json:"user,omitempty"`
}

// Moderation holds the request body for POST /v1/moderations.
type Moderation struct {
	Input string `json:"input" validate:"required"`
	Model string `json:"model,omitempty"`
}

// CreateFineTuningJob holds the request body for POST /v1/fine-tuning/jobs.
type CreateFineTuningJob struct {
	Model        string `json:"model" validate:"required"`
	TrainingFile string `json:"training_file" validate:"required"`
}
