package llm

import (
	"strings"
)

// HostedAlias is the model identifier the landing page sends by default.
const HostedAlias = "GPT Turbo"

const (
	openAIPrefix = "openai:"
	ollamaPrefix = "ollama:"
)

// Route is the outcome of resolving a model identifier.
type Route struct {
	Provider LLMProvider
	Model    string
	// Hosted routes need an API key.
	Hosted bool
}

// Router maps the model identifier of a question onto a provider and a concrete model name.
//
//	"GPT Turbo"        -> OpenAI, the configured OpenAI model
//	"openai:<name>"    -> OpenAI, <name>
//	"ollama:<name>"    -> Ollama, <name>
//	""                 -> Ollama, the default answer model
//	anything else      -> Ollama, taken verbatim
type Router struct {
	local       LLMProvider
	hosted      LLMProvider
	hostedModel string
}

func NewRouter(local, hosted LLMProvider, hostedModel string) *Router {
	return &Router{local: local, hosted: hosted, hostedModel: hostedModel}
}

func (r *Router) Resolve(identifier, defaultLocalModel string) Route {
	id := strings.TrimSpace(identifier)
	switch {
	case strings.EqualFold(id, HostedAlias):
		return Route{Provider: r.hosted, Model: r.hostedModel, Hosted: true}
	case strings.HasPrefix(id, openAIPrefix):
		return Route{Provider: r.hosted, Model: strings.TrimPrefix(id, openAIPrefix), Hosted: true}
	case strings.HasPrefix(id, ollamaPrefix):
		id = strings.TrimPrefix(id, ollamaPrefix)
	}
	if id == "" {
		id = defaultLocalModel
	}
	return Route{Provider: r.local, Model: id}
}
