package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	app_errors "kbase/internal/errors"
	"kbase/internal/llm"
	"kbase/internal/model"
	"kbase/internal/repository"
)

// Chunks are embedded in groups so one large file does not become one huge request.
const embedBatchSize = 32

// KnowledgeOptions bounds what a single upload batch may contain.
type KnowledgeOptions struct {
	ChunkSize    int
	ChunkOverlap int
	MaxFileSize  int64
	MaxFileCount int
}

// KnowledgeService adds files to the knowledgebase and manages stored documents.
type KnowledgeService struct {
	repo     repository.Repository
	embedder llm.Embedder
	opts     KnowledgeOptions
}

func NewKnowledgeService(repo repository.Repository, embedder llm.Embedder, opts KnowledgeOptions) *KnowledgeService {
	return &KnowledgeService{repo: repo, embedder: embedder, opts: opts}
}

// Upload ingests a batch of files. Every file name ends up either in SuccessfulFileNames or,
// with a reason, in FailedFileNames, never both; one bad file never fails the batch. An error is only
// returned when the batch itself is invalid or the request was cancelled.
func (s *KnowledgeService) Upload(ctx context.Context, files []model.FileUpload) (*model.UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files were provided", app_errors.ErrValidation)
	}
	if len(files) > s.opts.MaxFileCount {
		return nil, fmt.Errorf("%w: too many files: %d (max %d)", app_errors.ErrValidation, len(files), s.opts.MaxFileCount)
	}

	result := &model.UploadResult{
		SuccessfulFileNames: []string{},
		FailedFileNames:     map[string]string{},
	}
	seen := make(map[string]bool, len(files))

	for _, f := range files {
		name := sanitizeFilename(f.Name)
		// The first copy of a name decides its outcome; later copies are skipped.
		if seen[name] {
			slog.Info("Duplicate file name skipped", "file", name)
			continue
		}
		seen[name] = true

		if reason, err := s.ingest(ctx, name, f.Content); err != nil {
			return nil, err
		} else if reason != "" {
			slog.Info("File rejected", "file", name, "reason", reason)
			result.FailedFileNames[name] = reason
			continue
		}
		result.SuccessfulFileNames = append(result.SuccessfulFileNames, name)
	}

	slog.Info("Upload processed", "successful", len(result.SuccessfulFileNames), "failed", len(result.FailedFileNames))
	return result, nil
}

// ingest returns a non-empty reason when the file is rejected, and an error only
// when the whole batch must stop.
func (s *KnowledgeService) ingest(ctx context.Context, name string, content []byte) (string, error) {
	if int64(len(content)) > s.opts.MaxFileSize {
		return fmt.Sprintf("file too large: %d bytes (max %d)", len(content), s.opts.MaxFileSize), nil
	}
	if len(content) == 0 {
		return "file is empty", nil
	}

	mtype := mimetype.Detect(content)
	if !isText(mtype) {
		return fmt.Sprintf("unsupported file type: %s", mtype.String()), nil
	}
	if !utf8.Valid(content) {
		return "file is not valid UTF-8 text", nil
	}

	pieces := chunkText(string(content), s.opts.ChunkSize, s.opts.ChunkOverlap)
	if len(pieces) == 0 {
		return "file has no text content", nil
	}

	vectors, err := s.embed(ctx, pieces)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Error("Failed to embed file", "file", name, "error", err)
		return "could not embed file: " + err.Error(), nil
	}

	sum := sha256.Sum256(content)
	doc := &model.Document{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: mtype.String(),
		SizeBytes:   int64(len(content)),
		Checksum:    hex.EncodeToString(sum[:]),
		ChunkCount:  len(pieces),
		CreatedAt:   time.Now().UTC(),
	}
	chunks := make([]model.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = model.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Position:   i,
			Content:    p,
			Embedding:  vectors[i],
		}
	}

	if err := s.repo.ReplaceDocument(ctx, doc, chunks); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Error("Failed to store document", "file", name, "error", err)
		return "could not store file", nil
	}
	slog.Debug("Document stored", "file", name, "document_id", doc.ID, "chunks", len(chunks))
	return "", nil
}

func (s *KnowledgeService) embed(ctx context.Context, pieces []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(pieces))
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := min(start+embedBatchSize, len(pieces))
		batch, err := s.embedder.Embed(ctx, pieces[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// ListDocuments returns every document in the knowledgebase, newest first.
func (s *KnowledgeService) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	return s.repo.ListDocuments(ctx)
}

// DeleteDocument removes a document and its chunks.
func (s *KnowledgeService) DeleteDocument(ctx context.Context, documentID string) error {
	if err := s.repo.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("document %s: %w", documentID, app_errors.ErrNotFound)
		}
		return fmt.Errorf("could not delete document: %w", err)
	}
	slog.Info("Document deleted", "document_id", documentID)
	return nil
}

// isText accepts text/plain and everything derived from it (markdown, csv, json, html, ...).
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// sanitizeFilename strips directories so a name can be shown and stored as-is.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "unnamed"
	}
	return name
}
