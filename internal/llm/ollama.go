package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	app_errors "kbase/internal/errors"
)

// OllamaProvider talks to a local Ollama server for answers, embeddings and the model list.
type OllamaProvider struct {
	client         *api.Client
	embeddingModel string
}

// NewOllamaProvider creates a provider for the Ollama server at rawURL.
func NewOllamaProvider(rawURL, embeddingModel string) (*OllamaProvider, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", rawURL, err)
	}
	return &OllamaProvider{
		client:         api.NewClient(base, &http.Client{Timeout: 5 * time.Minute}),
		embeddingModel: embeddingModel,
	}, nil
}

// Heartbeat reports whether the Ollama server answers at all.
func (p *OllamaProvider) Heartbeat(ctx context.Context) error {
	return p.client.Heartbeat(ctx)
}

func (p *OllamaProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	messages := make([]api.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &stream,
	}

	var out *GenerateResponse
	err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		// With streaming disabled Ollama sends exactly one, final, response.
		tokens := resp.PromptEvalCount + resp.EvalCount
		out = &GenerateResponse{
			Model:   resp.Model,
			Content: resp.Message.Content,
		}
		if tokens > 0 {
			out.TotalTokens = &tokens
		}
		return nil
	})
	if err != nil {
		return nil, wrapOllamaError("chat", err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: ollama returned no response", app_errors.ErrUnavailable)
	}
	return out, nil
}

func (p *OllamaProvider) ListModels(ctx context.Context) (*ListModelsResponse, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, wrapOllamaError("list models", err)
	}
	models := make([]Model, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = Model{Name: m.Name, ModifiedAt: formatModifiedAt(m.ModifiedAt), Size: m.Size}
	}
	return &ListModelsResponse{Models: models}, nil
}

func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := p.client.Embed(ctx, &api.EmbedRequest{
		Model: p.embeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, wrapOllamaError("embed", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs", app_errors.ErrUnavailable, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// wrapOllamaError keeps 404s (unknown model) apart from transport failures.
func wrapOllamaError(op string, err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: ollama %s: %s", app_errors.ErrNotFound, op, statusErr.ErrorMessage)
	}
	return fmt.Errorf("%w: ollama %s: %v", app_errors.ErrUnavailable, op, err)
}
