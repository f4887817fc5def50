package interfaces

import (
	"context"

	"kbase/internal/llm"
	"kbase/internal/model"
	"kbase/internal/service"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows for
// decoupling (e.g., API layer from Service layer) and easier testing via mocking.

// KnowledgeService defines the contract for adding and managing knowledgebase files.
type KnowledgeService interface {
	Upload(ctx context.Context, files []model.FileUpload) (*model.UploadResult, error)
	ListDocuments(ctx context.Context) ([]*model.Document, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

// QuestionService defines the contract for answering questions from the knowledgebase.
type QuestionService interface {
	Ask(ctx context.Context, req *model.QuestionRequest, apiKey string) (*model.Answer, error)
}

// ModelService defines the contract for listing model identifiers.
type ModelService interface {
	List(ctx context.Context) (*llm.ListModelsResponse, error)
}

// SettingsService defines the contract for managing application settings.
type SettingsService interface {
	Get(ctx context.Context) (*service.Settings, error)
	Save(ctx context.Context, update *service.SettingsUpdate) (*service.Settings, error)
}
