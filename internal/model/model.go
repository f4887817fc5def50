package model

import (
	"time"
)

// Document stores metadata about a file added to the knowledgebase.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Checksum    string    `json:"checksum"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chunk is a piece of a document together with its embedding.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Position   int       `json:"position"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"` // Never sent to the client.
}

// ScoredChunk is a chunk ranked against a question, with the name of the document it came from.
type ScoredChunk struct {
	Chunk
	DocumentName string  `json:"document_name"`
	Score        float64 `json:"score"`
}

// FileUpload is a single file received in an upload batch.
type FileUpload struct {
	Name    string
	Content []byte
}

// UploadResult partitions an upload batch into accepted and rejected files.
type UploadResult struct {
	SuccessfulFileNames []string          `json:"successful_file_names"`
	FailedFileNames     map[string]string `json:"failed_file_names"`
}

// QuestionRequest is a free-text question together with the model that should answer it.
type QuestionRequest struct {
	Text  string `json:"text" validate:"notblank,max=4000" example:"What is X?"`
	Model string `json:"model" validate:"max=100" example:"GPT Turbo"`
}

// ContextSnippet is a titled excerpt of source material supporting an answer.
type ContextSnippet struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Answer is the model-generated answer with its supporting context.
type Answer struct {
	Answer  string           `json:"answer"`
	Context []ContextSnippet `json:"context"`
	Tokens  *int             `json:"tokens,omitempty"` // Only set when the provider reports usage.
}

// APIKeyHeader carries the caller's OpenAI key on question requests.
const APIKeyHeader = "X-OpenAI-Key"
