package repository

import (
	maildomain "replydesk/internal/mail/domain"
)

// EmailRepository is the durable message store consulted by the ingestion
// pipeline and projected by the read API.
type EmailRepository interface {
	// FindByMessageID returns the message with the given Message-ID, or nil
	// when it is not stored.
	FindByMessageID(messageID string) (*maildomain.Email, error)

	// FindByMessageOrReplyID returns a message whose message_id OR
	// in_reply_to equals id. Used by the poller's "already processed" check:
	// a stored reply referencing id means the original was handled even if
	// the original row predates the service.
	FindByMessageOrReplyID(id string) (*maildomain.Email, error)

	// Insert persists the message if no row with its message_id exists.
	// Returns created=false (and no error) when a concurrent or earlier
	// insert already claimed the message_id.
	Insert(email *maildomain.Email) (created bool, err error)

	// ReassignSessions rewrites session_id to newSessionID for up to limit
	// rows whose session_id differs and whose sender matches senderEmail
	// (case-insensitive substring on the stored raw sender) or whose
	// normalized subject equals subjectNorm. Runs as a single statement, so
	// readers never observe a half-merged conversation.
	ReassignSessions(senderEmail, subjectNorm, newSessionID string, limit int) (int64, error)

	// ListAll returns every stored message, newest first.
	ListAll() ([]*maildomain.Email, error)
}
