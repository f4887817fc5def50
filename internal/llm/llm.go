package llm

import (
	"context"
	"time"
)

// LLMProvider defines the interface for interacting with a language model.
type LLMProvider interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	ListModels(ctx context.Context) (*ListModelsResponse, error)
}

// Embedder turns texts into vectors. All chunks and questions must go through the same
// Embedder, otherwise their vectors are not comparable.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	// APIKey is only used by hosted providers. It is never logged.
	APIKey string `json:"-"`
}

type GenerateResponse struct {
	Model   string `json:"model"`
	Content string `json:"content"`
	// TotalTokens is nil when the provider does not report usage.
	TotalTokens *int `json:"total_tokens,omitempty"`
}

type Model struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
}

type ListModelsResponse struct {
	Models []Model `json:"models"`
}

func formatModifiedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
