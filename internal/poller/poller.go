// Package poller drives ingestion: it watches the inbox over IMAP, feeds new
// messages through the threading engine, and sends the generated replies.
package poller

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	maildomain "replydesk/internal/mail/domain"
	"replydesk/internal/mail/usecase"
	"replydesk/pkg/ai"
	"replydesk/pkg/config"
	"replydesk/pkg/mailaddr"
	"replydesk/pkg/smtpout"
)

// replyTimeout bounds one AI reply generation, retries included.
const replyTimeout = 3 * time.Minute

// Service polls the inbox and processes new messages from the monitored
// sender.
type Service struct {
	cfg      *config.Config
	emailUC  usecase.EmailUsecase
	replies  ai.ReplyService
	sender   *smtpout.Sender
	stopChan chan struct{}
}

// NewService creates a new poller
func NewService(cfg *config.Config, emailUC usecase.EmailUsecase, replies ai.ReplyService, sender *smtpout.Sender) *Service {
	return &Service{
		cfg:      cfg,
		emailUC:  emailUC,
		replies:  replies,
		sender:   sender,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop
func (s *Service) Start() {
	log.Printf("[Poller] Starting email monitoring (interval: %s, sender: %s)", s.cfg.PollInterval, s.cfg.MonitoredSender)

	go func() {
		// Run immediately on start
		s.pollOnce()

		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.pollOnce()
			case <-s.stopChan:
				log.Println("[Poller] Stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the poller
func (s *Service) Stop() {
	close(s.stopChan)
}

// pollOnce checks the inbox once. One bad message is logged and skipped; a
// connection-level failure aborts the cycle and the next tick retries.
func (s *Service) pollOnce() {
	if err := s.readEmails(); err != nil {
		log.Printf("[Poller] Cycle failed: %v", err)
	}
}

func (s *Service) readEmails() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.IMAPServer, s.cfg.IMAPPort)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("connect to %s failed: %w", addr, err)
	}
	defer c.Logout()

	if err := c.Login(s.cfg.Email, s.cfg.Password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("select INBOX failed: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	if s.cfg.MonitoredSender != "" {
		criteria.Header.Add("From", s.cfg.MonitoredSender)
	}
	ids, err := c.Search(criteria)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	log.Printf("[Poller] Found %d new email(s)", len(ids))

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var processed []uint32
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			log.Printf("[Poller] Message %d has no body section, skipping", msg.SeqNum)
			continue
		}
		if err := s.processMessage(body); err != nil {
			// Leave the message unseen so the next cycle retries it.
			log.Printf("[Poller] Failed to process message %d: %v", msg.SeqNum, err)
			continue
		}
		processed = append(processed, msg.SeqNum)
	}
	if err := <-done; err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if len(processed) > 0 {
		markSet := new(imap.SeqSet)
		markSet.AddNum(processed...)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.Store(markSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			log.Printf("[Poller] Failed to mark %d message(s) seen: %v", len(processed), err)
		}
	}
	return nil
}

func (s *Service) processMessage(raw io.Reader) error {
	in, err := parseInbound(raw)
	if err != nil {
		return err
	}
	log.Printf("[Poller] Processing email - Subject: %s, From: %s", in.Subject, in.From)

	done, err := s.emailUC.IsMessageProcessed(in.MessageID)
	if err != nil {
		return err
	}
	if done {
		log.Printf("[Poller] Message %s already processed, skipping", in.MessageID)
		return nil
	}

	sessionID, err := s.emailUC.IngestEmail(usecase.IngestInput{
		SenderEmail: in.From,
		MessageID:   in.MessageID,
		InReplyTo:   in.InReplyTo,
		Subject:     in.Subject,
		Body:        in.Body,
		Role:        maildomain.RoleUser,
	})
	if err != nil {
		return fmt.Errorf("ingest %s: %w", in.MessageID, err)
	}
	log.Printf("[Poller] Saved email %s in session %s", in.MessageID, sessionID)

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	replyBody, err := s.replies.GenerateReply(ctx, in.From, in.Subject, in.Body)
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}

	// Thread the reply onto whatever the inbound message referenced, or the
	// inbound message itself when it started the conversation.
	threadRef := in.InReplyTo
	if threadRef == "" {
		threadRef = in.MessageID
	}
	subject := replySubject(in.Subject)
	replyID := newMessageID(s.cfg.Email)

	rawReply, err := buildReply(s.cfg.Email, in.From, subject, replyBody, replyID, threadRef)
	if err != nil {
		return err
	}
	if err := s.sender.Send(s.cfg.Email, []string{mailaddr.NormalizeAddress(in.From)}, rawReply); err != nil {
		return err
	}
	log.Printf("[Poller] Reply sent to %s", in.From)

	if _, err := s.emailUC.IngestEmail(usecase.IngestInput{
		SenderEmail: s.cfg.Email,
		MessageID:   replyID,
		InReplyTo:   in.MessageID,
		Subject:     subject,
		Body:        replyBody,
		Role:        maildomain.RoleHost,
	}); err != nil {
		// The reply is already on the wire; record the failure and move on.
		log.Printf("[Poller] Failed to store sent reply %s: %v", replyID, err)
	}
	return nil
}
