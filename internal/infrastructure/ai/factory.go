// Package ai implements the AI capability boundary over plain HTTP, with
// one wire adapter per backend family.
package ai

import (
	"net/http"
	"strings"
	"time"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

// Factory builds provider instances from model definitions. The wire
// adapter is inferred from the endpoint, so adding a backend to the config
// needs no code change as long as it speaks one of the known dialects.
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a factory with a shared HTTP client. The client
// timeout is the capability-level bound; request contexts cancel earlier.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// ForModel returns the provider for a model definition.
func (f *Factory) ForModel(model domain.ModelDefinition) (ports.Provider, error) {
	switch inferProviderKind(model.Endpoint, model.Name) {
	case kindGemini:
		return newHTTPProvider("gemini", model, f.httpClient, geminiAdapter()), nil
	case kindAnthropic:
		return newHTTPProvider("anthropic", model, f.httpClient, anthropicAdapter()), nil
	case kindOllama:
		return newHTTPProvider("ollama", model, f.httpClient, ollamaAdapter()), nil
	default:
		return newHTTPProvider("openai", model, f.httpClient, openaiAdapter()), nil
	}
}

type providerKind string

const (
	kindGemini    providerKind = "gemini"
	kindAnthropic providerKind = "anthropic"
	kindOpenAI    providerKind = "openai"
	kindOllama    providerKind = "ollama"
)

func inferProviderKind(endpoint, name string) providerKind {
	nameLower := strings.ToLower(name)
	switch {
	case strings.Contains(endpoint, "generativelanguage.googleapis.com"), strings.Contains(nameLower, "gemini"):
		return kindGemini
	case strings.Contains(endpoint, "anthropic.com"):
		return kindAnthropic
	case strings.Contains(nameLower, "ollama"), strings.Contains(endpoint, "11434"), strings.Contains(endpoint, "localhost"):
		return kindOllama
	default:
		return kindOpenAI
	}
}

var _ ports.ProviderFactory = (*Factory)(nil)
