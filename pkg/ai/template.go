package ai

import (
	"context"

	"replydesk/pkg/templates"
)

// TemplateService implements ReplyService with canned templates only. Used
// directly when AI_PROVIDER=template, and as the last resort behind
// FallbackService.
type TemplateService struct {
	templates *templates.Templates
}

func NewTemplateService(tpls *templates.Templates) *TemplateService {
	return &TemplateService{templates: tpls}
}

func (t *TemplateService) GenerateReply(_ context.Context, _, subject, body string) (string, error) {
	_, replyBody := t.templates.DefaultReply(subject, body)
	return replyBody, nil
}
