package ai

import (
	"context"
	"log"
	"strings"
)

// minReplyLength guards against the model returning an empty or truncated
// reply; anything shorter is replaced by the template fallback.
const minReplyLength = 10

// FallbackService routes reply generation to the primary provider and falls
// back to the template provider when the primary fails or returns an
// unusable reply.
type FallbackService struct {
	primary  ReplyService
	fallback ReplyService
}

// NewFallbackService creates a new fallback service
func NewFallbackService(primary, fallback ReplyService) *FallbackService {
	return &FallbackService{
		primary:  primary,
		fallback: fallback,
	}
}

func (f *FallbackService) GenerateReply(ctx context.Context, senderEmail, subject, body string) (string, error) {
	if f.primary != nil {
		reply, err := f.primary.GenerateReply(ctx, senderEmail, subject, body)
		if err == nil && len(strings.TrimSpace(reply)) >= minReplyLength {
			return reply, nil
		}
		if err != nil {
			log.Printf("[AI] Primary provider failed: %v, using template fallback", err)
		} else {
			log.Printf("[AI] Primary reply too short (%d chars), using template fallback", len(strings.TrimSpace(reply)))
		}
	}
	return f.fallback.GenerateReply(ctx, senderEmail, subject, body)
}
