// Package client is the HTTP request helper the landing page uses to reach the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"kbase/internal/model"
)

// Paths of the two endpoints the landing page calls.
const (
	QuestionsPath = "/api/v1/questions"
	UploadPath    = "/api/v1/upload"

	uploadField = "files"
)

// KeySource supplies the locally stored OpenAI key. It is read on every request so
// a key applied during the session is used immediately.
type KeySource func() string

// File is one file selected for upload.
type File struct {
	Name    string
	Content []byte
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Client sends questions and uploads to the kbase server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     KeySource
}

// New creates a Client for the server at baseURL. apiKey may be nil.
func New(baseURL string, apiKey KeySource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		apiKey:     apiKey,
	}
}

// SubmitQuestion posts a question and decodes the answer.
func (c *Client) SubmitQuestion(ctx context.Context, text, modelID string) (*model.Answer, error) {
	body, err := json.Marshal(model.QuestionRequest{Text: text, Model: modelID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+QuestionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != nil {
		if key := c.apiKey(); key != "" {
			req.Header.Set(model.APIKeyHeader, key)
		}
	}

	var answer model.Answer
	if err := c.do(req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// UploadFiles sends files as one multipart batch under the "files" field.
func (c *Client) UploadFiles(ctx context.Context, files []File) (*model.UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile(uploadField, f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to upload: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("failed to add %s to upload: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result model.UploadResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Error
		}
		slog.Warn("Server returned an error", "path", req.URL.Path, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
