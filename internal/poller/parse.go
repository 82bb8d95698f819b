package poller

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	// Register charset decoders (windows-1252, iso-8859-*, koi8-r, etc.)
	_ "github.com/emersion/go-message/charset"
)

// inboundEmail is a decoded inbound message, headers as best-effort strings.
type inboundEmail struct {
	From      string // raw "Display Name <addr>" form
	Subject   string
	MessageID string
	InReplyTo string
	Body      string
}

// parseInbound reads one raw RFC 822 message. The body is the first
// text/plain inline part, or the first inline part when no text/plain part
// exists.
func parseInbound(r io.Reader) (*inboundEmail, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read message: %w", err)
	}

	in := &inboundEmail{}
	in.From, _ = mr.Header.Text("From")
	in.Subject, _ = mr.Header.Subject()
	in.MessageID, _ = mr.Header.MessageID()
	if refs, err := mr.Header.MsgIDList("In-Reply-To"); err == nil && len(refs) > 0 {
		in.InReplyTo = refs[0]
	}

	var fallbackBody string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken part should not lose the whole message.
			break
		}
		ih, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		data, err := io.ReadAll(p.Body)
		if err != nil {
			continue
		}
		ct, _, _ := ih.ContentType()
		if ct == "text/plain" {
			in.Body = string(data)
			break
		}
		if fallbackBody == "" {
			fallbackBody = string(data)
		}
	}
	if in.Body == "" {
		in.Body = fallbackBody
	}
	in.Body = strings.TrimRight(in.Body, "\r\n")

	return in, nil
}
