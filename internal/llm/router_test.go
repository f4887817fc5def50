package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_Resolve(t *testing.T) {
	local := &OllamaProvider{}
	hosted := NewOpenAIProvider("")
	router := NewRouter(local, hosted, "gpt-3.5-turbo")

	tests := []struct {
		identifier string
		provider   LLMProvider
		model      string
		hosted     bool
	}{
		{identifier: "GPT Turbo", provider: hosted, model: "gpt-3.5-turbo", hosted: true},
		{identifier: "gpt turbo", provider: hosted, model: "gpt-3.5-turbo", hosted: true},
		{identifier: "openai:gpt-4o-mini", provider: hosted, model: "gpt-4o-mini", hosted: true},
		{identifier: "ollama:mistral", provider: local, model: "mistral"},
		{identifier: "phi3", provider: local, model: "phi3"},
		{identifier: "", provider: local, model: "llama3.2"},
		{identifier: "ollama:", provider: local, model: "llama3.2"},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			route := router.Resolve(tt.identifier, "llama3.2")
			assert.Same(t, tt.provider, route.Provider)
			assert.Equal(t, tt.model, route.Model)
			assert.Equal(t, tt.hosted, route.Hosted)
		})
	}
}
