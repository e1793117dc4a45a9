package model

import "time"

// Usage is one append-only ledger row per completed or failed /v1 request.
// Rows are never updated or deleted.
type Usage struct {
	ID               string    `json:"id"`
	APIKeyID         string    `json:"api_key_id"`
	Endpoint         string    `json:"endpoint"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	LatencyMs        int       `json:"latency_ms"`
	StatusCode       int       `json:"status_code"`
	ClientIP         string    `json:"client_ip,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
