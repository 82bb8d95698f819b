package usecase

import (
	maildomain "replydesk/internal/mail/domain"
)

// IngestInput carries one decoded message into the pipeline. All fields are
// best-effort strings from the transport; only MessageID and SenderEmail are
// required.
type IngestInput struct {
	SenderEmail string
	MessageID   string
	InReplyTo   string
	Subject     string
	Body        string
	Role        maildomain.Role
}

// EmailUsecase is the conversation-threading and ingestion engine.
type EmailUsecase interface {
	// IngestEmail assigns the message to a conversation, stores it, and
	// returns the session id. Calling it again with the same MessageID is a
	// no-op that returns the already-assigned session id.
	IngestEmail(in IngestInput) (sessionID string, err error)

	// IsMessageProcessed reports whether a message id was already ingested,
	// either directly or as the in_reply_to target of a stored reply.
	IsMessageProcessed(messageID string) (bool, error)

	// ListEmails returns every stored message, newest first.
	ListEmails() ([]*maildomain.Email, error)
}
