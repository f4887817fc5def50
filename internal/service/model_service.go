package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"kbase/internal/llm"
)

const (
	localModelsKey = "local"
	localModelsTTL = 30 * time.Second
)

// ModelService lists the model identifiers a question may name.
type ModelService struct {
	local  llm.LLMProvider
	hosted llm.LLMProvider
	cache  *cache.Cache
}

// NewModelService creates a new ModelService. A successful Ollama listing is cached
// for thirty seconds so the model picker does not hit Ollama on every request.
func NewModelService(local, hosted llm.LLMProvider) *ModelService {
	return &ModelService{
		local:  local,
		hosted: hosted,
		cache:  cache.New(localModelsTTL, 2*localModelsTTL),
	}
}

// List returns the hosted alias first, then every hosted model as "openai:<name>",
// then every model installed in Ollama. An unreachable Ollama is an error; the hosted
// list is best effort.
func (s *ModelService) List(ctx context.Context) (*llm.ListModelsResponse, error) {
	local, err := s.localModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list local models: %w", err)
	}

	models := []llm.Model{{Name: llm.HostedAlias}}
	if hosted, err := s.hosted.ListModels(ctx); err != nil {
		slog.Warn("Could not list hosted models", "error", err)
	} else {
		for _, m := range hosted.Models {
			m.Name = "openai:" + m.Name
			models = append(models, m)
		}
	}
	models = append(models, local...)

	return &llm.ListModelsResponse{Models: models}, nil
}

func (s *ModelService) localModels(ctx context.Context) ([]llm.Model, error) {
	if cached, ok := s.cache.Get(localModelsKey); ok {
		return cached.([]llm.Model), nil
	}

	resp, err := s.local.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(localModelsKey, resp.Models)
	return resp.Models, nil
}
