package poller

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"replydesk/pkg/mailaddr"
)

// replySubject prefixes the inbound subject with "Re: " unless it already
// carries one.
func replySubject(subject string) string {
	if strings.HasPrefix(subject, "Re:") {
		return subject
	}
	return "Re: " + subject
}

// newMessageID mints a Message-ID for an outbound reply, scoped to the
// sending account's domain.
func newMessageID(fromAddr string) string {
	domain := "localhost"
	if i := strings.LastIndex(fromAddr, "@"); i >= 0 && i+1 < len(fromAddr) {
		domain = fromAddr[i+1:]
	}
	return fmt.Sprintf("%s@%s", uuid.New().String(), domain)
}

// buildReply assembles the outbound MIME reply. Threading headers point at
// the conversation the inbound message claimed (its own In-Reply-To when
// present, otherwise the inbound message itself).
func buildReply(from, to, subject, body, messageID, threadRef string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: mailaddr.NormalizeAddress(to)}})
	h.SetSubject(subject)
	h.SetMessageID(messageID)
	if threadRef != "" {
		h.SetMsgIDList("In-Reply-To", []string{threadRef})
		h.SetMsgIDList("References", []string{threadRef})
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("cannot create reply writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return nil, fmt.Errorf("cannot write reply body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
