package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	app_errors "kbase/internal/errors"
	"kbase/internal/llm"
	"kbase/internal/model"
	"kbase/internal/repository"
	"kbase/internal/vector"
)

// settingsReader is the part of SettingsService the question flow needs.
type settingsReader interface {
	Get(ctx context.Context) (*Settings, error)
	APIKey(ctx context.Context) (string, error)
}

// QuestionService answers questions from the stored knowledgebase.
type QuestionService struct {
	repo     repository.Repository
	embedder llm.Embedder
	router   *llm.Router
	settings settingsReader
	topK     int
}

func NewQuestionService(repo repository.Repository, embedder llm.Embedder, router *llm.Router, settings settingsReader, topK int) *QuestionService {
	return &QuestionService{repo: repo, embedder: embedder, router: router, settings: settings, topK: topK}
}

// Ask retrieves the chunks closest to the question and lets the selected model answer
// from them. apiKey comes from the caller and wins over the key stored on the server.
func (s *QuestionService) Ask(ctx context.Context, req *model.QuestionRequest, apiKey string) (*model.Answer, error) {
	question := strings.TrimSpace(req.Text)
	if question == "" {
		return nil, fmt.Errorf("%w: question text cannot be empty", app_errors.ErrValidation)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil && !errors.Is(err, app_errors.ErrNotFound) {
		return nil, fmt.Errorf("could not load settings: %w", err)
	}
	if settings == nil {
		settings = &Settings{}
	}

	route := s.router.Resolve(req.Model, settings.AnswerModel)
	if route.Hosted && apiKey == "" {
		if apiKey, err = s.settings.APIKey(ctx); err != nil {
			return nil, err
		}
	}
	if route.Hosted && apiKey == "" {
		return nil, fmt.Errorf("%w: an OpenAI API key is required for model %q", app_errors.ErrPermission, route.Model)
	}

	relevant, err := s.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	resp, err := route.Provider.Generate(ctx, &llm.GenerateRequest{
		Model:    route.Model,
		Messages: buildMessages(settings.SystemPrompt, question, relevant),
		APIKey:   apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate answer: %w", err)
	}

	snippets := make([]model.ContextSnippet, len(relevant))
	for i, c := range relevant {
		snippets[i] = model.ContextSnippet{Title: c.DocumentName, Text: c.Content}
	}

	slog.Info("Question answered", "model", route.Model, "hosted", route.Hosted, "context_chunks", len(snippets))
	return &model.Answer{
		Answer:  resp.Content,
		Context: snippets,
		Tokens:  resp.TotalTokens,
	}, nil
}

// retrieve returns the topK chunks most similar to the question. An empty knowledgebase
// yields no chunks and the question is answered without context.
func (s *QuestionService) retrieve(ctx context.Context, question string) ([]model.ScoredChunk, error) {
	chunks, err := s.repo.ListChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load knowledgebase: %w", err)
	}
	if len(chunks) == 0 {
		return []model.ScoredChunk{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("could not embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected one question embedding, got %d", app_errors.ErrUnavailable, len(vectors))
	}
	return vector.TopK(vectors[0], chunks, s.topK), nil
}

func buildMessages(systemPrompt, question string, relevant []model.ScoredChunk) []llm.Message {
	var messages []llm.Message
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	}

	if len(relevant) == 0 {
		return append(messages, llm.Message{Role: "user", Content: question})
	}

	var b strings.Builder
	b.WriteString("Answer the question using the context below. If the context does not contain the answer, say so.\n\n")
	for _, c := range relevant {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", c.DocumentName, c.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return append(messages, llm.Message{Role: "user", Content: b.String()})
}
