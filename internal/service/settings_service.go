package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	app_errors "kbase/internal/errors"
	"kbase/internal/llm"
)

const (
	keySystemPrompt = "system_prompt"
	keyAnswerModel  = "answer_model"
	keyOpenAIAPIKey = "openai_api_key"
)

// Settings holds the dynamic server settings stored in the settings table.
type Settings struct {
	SystemPrompt string `json:"system_prompt"`
	AnswerModel  string `json:"answer_model"`
	// The key itself never leaves the server; clients only learn whether one is set.
	OpenAIAPIKey string `json:"-"`
	APIKeySet    bool   `json:"api_key_set"`
}

// SettingsUpdate is a partial update: nil fields are left untouched.
type SettingsUpdate struct {
	SystemPrompt *string `json:"system_prompt,omitempty" validate:"omitempty,min=1,max=4000"`
	AnswerModel  *string `json:"answer_model,omitempty" validate:"omitempty,min=1,max=200"`
	OpenAIAPIKey *string `json:"openai_api_key,omitempty" validate:"omitempty,max=400"`
}

type SettingsService struct {
	db  *sql.DB
	llm llm.LLMProvider
}

func NewSettingsService(db *sql.DB, llmProvider llm.LLMProvider) *SettingsService {
	return &SettingsService{db: db, llm: llmProvider}
}

// InitAndGet returns the stored settings, creating them on first start. The answer model
// falls back to the first model installed in Ollama when the configured one is missing.
func (s *SettingsService) InitAndGet(ctx context.Context, defaults Settings) (*Settings, error) {
	settings, err := s.Get(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, app_errors.ErrNotFound) {
		return nil, err
	}

	slog.Info("No settings found. Performing initialization...")
	initial := defaults
	models, err := s.llm.ListModels(ctx)
	switch {
	case err != nil:
		slog.Warn("Could not list models during init, using configured default.", "error", err)
	case len(models.Models) == 0:
		slog.Warn("Ollama has no models installed, using configured default.", "model", defaults.AnswerModel)
	case !slices.Contains(modelNames(models), defaults.AnswerModel):
		initial.AnswerModel = models.Models[0].Name
		slog.Info("Configured answer model is not installed, selected another.", "model", initial.AnswerModel)
	}

	values := map[string]string{
		keyAnswerModel:  initial.AnswerModel,
		keySystemPrompt: initial.SystemPrompt,
	}
	if err := s.write(ctx, values); err != nil {
		return nil, fmt.Errorf("failed to save initial settings: %w", err)
	}
	return &initial, nil
}

// Get retrieves the current settings.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("settings: %w", app_errors.ErrNotFound)
	}

	return &Settings{
		SystemPrompt: values[keySystemPrompt],
		AnswerModel:  values[keyAnswerModel],
		OpenAIAPIKey: values[keyOpenAIAPIKey],
		APIKeySet:    values[keyOpenAIAPIKey] != "",
	}, nil
}

// Save applies a partial update. A new answer model must be installed in Ollama.
func (s *SettingsService) Save(ctx context.Context, update *SettingsUpdate) (*Settings, error) {
	values := map[string]string{}
	if update.AnswerModel != nil {
		models, err := s.llm.ListModels(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not verify answer model: %w", err)
		}
		if !slices.Contains(modelNames(models), *update.AnswerModel) {
			return nil, fmt.Errorf("%w: answer model '%s' is not available", app_errors.ErrValidation, *update.AnswerModel)
		}
		values[keyAnswerModel] = *update.AnswerModel
	}
	if update.SystemPrompt != nil {
		values[keySystemPrompt] = *update.SystemPrompt
	}
	if update.OpenAIAPIKey != nil {
		values[keyOpenAIAPIKey] = strings.TrimSpace(*update.OpenAIAPIKey)
	}

	if len(values) > 0 {
		if err := s.write(ctx, values); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx)
}

// APIKey returns the server-side OpenAI key, or "" when none is stored.
func (s *SettingsService) APIKey(ctx context.Context) (string, error) {
	var key string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", keyOpenAIAPIKey).Scan(&key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read api key: %w", err)
	}
	return key, nil
}

// write upserts values in a single transaction, in key order.
func (s *SettingsService) write(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value")
	if err != nil {
		return fmt.Errorf("could not prepare settings upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, values[k]); err != nil {
			return fmt.Errorf("could not save setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func modelNames(resp *llm.ListModelsResponse) []string {
	names := make([]string, len(resp.Models))
	for i, m := range resp.Models {
		names[i] = m.Name
	}
	return names
}
