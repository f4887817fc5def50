package repository

import (
	"context"

	"kbase/internal/model"
)

// Repository defines the interface for knowledgebase storage operations.
// This interface makes it easy to switch database implementations.
type Repository interface {
	// ReplaceDocument stores a document and its chunks. A previous document with
	// the same name is removed in the same transaction.
	ReplaceDocument(ctx context.Context, doc *model.Document, chunks []model.Chunk) error
	ListDocuments(ctx context.Context) ([]*model.Document, error)
	DeleteDocument(ctx context.Context, documentID string) error

	// ListChunks returns every stored chunk with its embedding and document name.
	ListChunks(ctx context.Context) ([]model.ScoredChunk, error)
}
