package ai

import (
	"replydesk/pkg/templates"
)

// Config holds reply provider configuration
type Config struct {
	Provider ProviderType // "ollama" or "template"

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama2", "mistral"
}

// NewReplyService creates a ReplyService based on the config. The template
// provider always backs the Ollama provider, so reply generation never fails
// outright.
func NewReplyService(cfg Config, tpls *templates.Templates) ReplyService {
	templateService := NewTemplateService(tpls)

	switch cfg.Provider {
	case ProviderTemplate:
		return templateService
	default:
		ollama := NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)
		return NewFallbackService(ollama, templateService)
	}
}
