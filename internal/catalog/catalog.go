// Package catalog maps public model names to upstream vendor models and
// carries the pricing used for usage cost accounting.
package catalog

import "sort"

// Capability describes which endpoint a model serves.
type Capability string

const (
	CapabilityChat       Capability = "chat"
	CapabilityImage      Capability = "image"
	CapabilityEmbedding  Capability = "embedding"
	CapabilityModeration Capability = "moderation"
)

// Model is one entry in the catalog. Pricing is USD per 1k tokens; image
// models price per generated image instead.
type Model struct {
	ID                string
	UpstreamID        string
	OwnedBy           string
	Capability        Capability
	InputPer1kTokens  float64
	OutputPer1kTokens float64
	PerImage          float64
}

var models = map[string]Model{
	"gpt-4o": {
		ID: "gpt-4o", UpstreamID: "gpt-4o", OwnedBy: "openai",
		Capability: CapabilityChat, InputPer1kTokens: 0.0025, OutputPer1kTokens: 0.01,
	},
	"gpt-4o-mini": {
		ID: "gpt-4o-mini", UpstreamID: "gpt-4o-mini", OwnedBy: "openai",
		Capability: CapabilityChat, InputPer1kTokens: 0.00015, OutputPer1kTokens: 0.0006,
	},
	"gpt-4-turbo": {
		ID: "gpt-4-turbo", UpstreamID: "gpt-4-turbo", OwnedBy: "openai",
		Capability: CapabilityChat, InputPer1kTokens: 0.01, OutputPer1kTokens: 0.03,
	},
	"gpt-3.5-turbo": {
		ID: "gpt-3.5-turbo", UpstreamID: "gpt-3.5-turbo", OwnedBy: "openai",
		Capability: CapabilityChat, InputPer1kTokens: 0.0005, OutputPer1kTokens: 0.0015,
	},
	"dall-e-3": {
		ID: "dall-e-3", UpstreamID: "dall-e-3", OwnedBy: "openai",
		Capability: CapabilityImage, PerImage: 0.04,
	},
	"dall-e-2": {
		ID: "dall-e-2", UpstreamID: "dall-e-2", OwnedBy: "openai",
		Capability: CapabilityImage, PerImage: 0.02,
	},
	"text-embedding-3-small": {
		ID: "text-embedding-3-small", UpstreamID: "text-embedding-3-small", OwnedBy: "openai",
		Capability: CapabilityEmbedding, InputPer1kTokens: 0.00002,
	},
	"text-embedding-3-large": {
		ID: "text-embedding-3-large", UpstreamID: "text-embedding-3-large", OwnedBy: "openai",
		Capability: CapabilityEmbedding, InputPer1kTokens: 0.00013,
	},
	"omni-moderation-latest": {
		ID: "omni-moderation-latest", UpstreamID: "omni-moderation-latest", OwnedBy: "openai",
		Capability: CapabilityModeration,
	},
}

// Lookup returns the catalog entry for a public model name.
func Lookup(id string) (Model, bool) {
	m, ok := models[id]
	return m, ok
}

// Supports reports whether the model exists and serves the given capability.
func Supports(id string, cap Capability) bool {
	m, ok := models[id]
	return ok && m.Capability == cap
}

// List returns all catalog entries sorted by ID, for GET /v1/models.
func List() []Model {
	out := make([]Model, 0, len(models))
	for _, m := range models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cost computes the USD cost of a token-based request against the model's
// pricing. Unknown models cost zero.
func Cost(id string, promptTokens, completionTokens int) float64 {
	m, ok := models[id]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1000.0*m.InputPer1kTokens +
		float64(completionTokens)/1000.0*m.OutputPer1kTokens
}

// ImageCost computes the USD cost of generating n images.
func ImageCost(id string, n int) float64 {
	m, ok := models[id]
	if !ok {
		return 0
	}
	return float64(n) * m.PerImage
}
