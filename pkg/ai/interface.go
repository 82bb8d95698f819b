package ai

import "context"

// ReplyService is the interface for generating reply bodies to inbound
// support emails. Implement this interface to add new providers.
type ReplyService interface {
	GenerateReply(ctx context.Context, senderEmail, subject, body string) (string, error)
}

// ProviderType represents the reply provider type
type ProviderType string

const (
	ProviderOllama   ProviderType = "ollama"
	ProviderTemplate ProviderType = "template"
)
