package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "kbase/internal/errors"
)

// TestOllamaProvider verifies that our provider sends the right requests to the
// Ollama API and maps the responses back into our own types.
//
// TECHNIQUE: `net/http/httptest` gives us a stand-in for the real Ollama server, so
// the test runs without network access or a downloaded model.
func TestOllamaProvider(t *testing.T) {
	var capturedPath string
	var capturedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedBody = nil
		if r.Body != nil && r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/chat":
			_, err := w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"X is Y"},"done":true,"prompt_eval_count":12,"eval_count":8}`))
			assert.NoError(t, err)
		case "/api/embed":
			_, err := w.Write([]byte(`{"model":"nomic-embed-text","embeddings":[[0.1,0.2],[0.3,0.4]]}`))
			assert.NoError(t, err)
		case "/api/tags":
			_, err := w.Write([]byte(`{"models":[{"name":"llama3.2:latest","size":100}]}`))
			assert.NoError(t, err)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
		}
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(server.URL, "nomic-embed-text")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Generate", func(t *testing.T) {
		resp, err := provider.Generate(ctx, &GenerateRequest{
			Model:    "llama3.2",
			Messages: []Message{{Role: "user", Content: "What is X?"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "/api/chat", capturedPath)
		assert.Equal(t, false, capturedBody["stream"])
		assert.Equal(t, "X is Y", resp.Content)
		require.NotNil(t, resp.TotalTokens)
		assert.Equal(t, 20, *resp.TotalTokens)
	})

	t.Run("Embed", func(t *testing.T) {
		vectors, err := provider.Embed(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, "/api/embed", capturedPath)
		assert.Equal(t, "nomic-embed-text", capturedBody["model"])
		assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vectors)
	})

	t.Run("Embed - count mismatch", func(t *testing.T) {
		_, err := provider.Embed(ctx, []string{"only one"})
		assert.ErrorIs(t, err, app_errors.ErrUnavailable)
	})

	t.Run("ListModels", func(t *testing.T) {
		models, err := provider.ListModels(ctx)
		require.NoError(t, err)
		require.Len(t, models.Models, 1)
		assert.Equal(t, "llama3.2:latest", models.Models[0].Name)
	})
}

func TestOllamaProvider_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider, err := NewOllamaProvider(url, "nomic-embed-text")
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), &GenerateRequest{Model: "llama3.2"})
	assert.ErrorIs(t, err, app_errors.ErrUnavailable)
}
