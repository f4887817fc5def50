package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	app_errors "kbase/internal/errors"
)

// OpenAIProvider answers questions with the OpenAI chat completions API.
// The API key arrives with every request, so a client is built per call.
type OpenAIProvider struct {
	baseURL string
	models  []string
}

// NewOpenAIProvider creates a provider. An empty baseURL means the public OpenAI endpoint.
// models is the list reported by ListModels; OpenAI's own list needs a key.
func NewOpenAIProvider(baseURL string, models ...string) *OpenAIProvider {
	return &OpenAIProvider{baseURL: baseURL, models: models}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("%w: an OpenAI API key is required for model %q", app_errors.ErrPermission, req.Model)
	}

	cfg := openai.DefaultConfig(req.APIKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", app_errors.ErrUnavailable)
	}

	out := &GenerateResponse{
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
	}
	if total := resp.Usage.TotalTokens; total > 0 {
		out.TotalTokens = &total
	}
	return out, nil
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (*ListModelsResponse, error) {
	models := make([]Model, len(p.models))
	for i, name := range p.models {
		models[i] = Model{Name: name}
	}
	return &ListModelsResponse{Models: models}, nil
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: openai rejected the API key: %s", app_errors.ErrPermission, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: openai: %s", app_errors.ErrNotFound, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: openai: %v", app_errors.ErrUnavailable, err)
}
