package usecase

import (
	"fmt"
	"log"
	"time"

	maildomain "replydesk/internal/mail/domain"
	"replydesk/internal/mail/repository"
	"replydesk/pkg/mailaddr"
)

type emailUsecase struct {
	emailRepo  repository.EmailRepository
	mergeLimit int
	now        func() time.Time
}

// NewEmailUsecase creates the ingestion engine. mergeLimit bounds how many
// rows one retroactive merge may rewrite; values <= 0 fall back to 500.
func NewEmailUsecase(emailRepo repository.EmailRepository, mergeLimit int) EmailUsecase {
	if mergeLimit <= 0 {
		mergeLimit = 500
	}
	return &emailUsecase{
		emailRepo:  emailRepo,
		mergeLimit: mergeLimit,
		now:        time.Now,
	}
}

func (u *emailUsecase) IngestEmail(in IngestInput) (string, error) {
	if in.MessageID == "" || in.SenderEmail == "" {
		return "", fmt.Errorf("%w: message_id and sender_email are required", maildomain.ErrMalformedInput)
	}

	// Dedup: a re-delivered message must not mutate anything and must report
	// the session it already belongs to.
	existing, err := u.emailRepo.FindByMessageID(in.MessageID)
	if err != nil {
		return "", fmt.Errorf("%w: lookup %s: %v", maildomain.ErrStorage, in.MessageID, err)
	}
	if existing != nil {
		log.Printf("[Ingest] Message %s already stored, skipping", in.MessageID)
		return existing.SessionID, nil
	}

	sessionID, err := u.resolveSession(in.InReplyTo)
	if err != nil {
		return "", err
	}
	if sessionID == "" {
		// No resolvable parent: this message seeds a new conversation.
		sessionID = in.MessageID
		log.Printf("[Ingest] New session %s", sessionID)
	}

	email := &maildomain.Email{
		SenderEmail: in.SenderEmail,
		SessionID:   sessionID,
		MessageID:   in.MessageID,
		InReplyTo:   in.InReplyTo,
		Subject:     in.Subject,
		SubjectNorm: mailaddr.NormalizeSubject(in.Subject),
		Body:        in.Body,
		Role:        in.Role,
		ReceivedAt:  u.now(),
	}
	created, err := u.emailRepo.Insert(email)
	if err != nil {
		return "", fmt.Errorf("%w: insert %s: %v", maildomain.ErrStorage, in.MessageID, err)
	}
	if !created {
		// Lost a race with a concurrent ingestion of the same message.
		// Same outcome as the dedup check above: report the stored session.
		winner, err := u.emailRepo.FindByMessageID(in.MessageID)
		if err != nil {
			return "", fmt.Errorf("%w: lookup after conflict %s: %v", maildomain.ErrStorage, in.MessageID, err)
		}
		if winner != nil {
			return winner.SessionID, nil
		}
		return sessionID, nil
	}

	// Retroactive merge, inbound messages only: pull earlier messages from
	// the same sender or with the same normalized subject into this session.
	// Host replies never trigger it, so outbound auto-replies cannot cascade
	// merges.
	if in.Role == maildomain.RoleUser {
		sender := mailaddr.NormalizeAddress(in.SenderEmail)
		subject := mailaddr.NormalizeSubject(in.Subject)
		updated, err := u.emailRepo.ReassignSessions(sender, subject, sessionID, u.mergeLimit)
		if err != nil {
			return "", fmt.Errorf("%w: session merge into %s: %v", maildomain.ErrStorage, sessionID, err)
		}
		if updated > 0 {
			log.Printf("[Ingest] Merged %d earlier message(s) into session %s", updated, sessionID)
		}
	}

	return sessionID, nil
}

// resolveSession honors the sender's own thread claim and nothing else: only
// a resolvable in_reply_to joins an existing conversation at ingest time.
// Same-sender/same-subject heuristics are applied retroactively after insert
// instead, once this message's own identity is stored.
func (u *emailUsecase) resolveSession(inReplyTo string) (string, error) {
	if inReplyTo == "" {
		return "", nil
	}
	parent, err := u.emailRepo.FindByMessageID(inReplyTo)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %v", maildomain.ErrStorage, inReplyTo, err)
	}
	if parent != nil && parent.SessionID != "" {
		log.Printf("[Ingest] Found session %s via In-Reply-To", parent.SessionID)
		return parent.SessionID, nil
	}
	return "", nil
}

func (u *emailUsecase) IsMessageProcessed(messageID string) (bool, error) {
	email, err := u.emailRepo.FindByMessageOrReplyID(messageID)
	if err != nil {
		return false, fmt.Errorf("%w: processed check %s: %v", maildomain.ErrStorage, messageID, err)
	}
	return email != nil, nil
}

func (u *emailUsecase) ListEmails() ([]*maildomain.Email, error) {
	emails, err := u.emailRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", maildomain.ErrStorage, err)
	}
	return emails, nil
}
