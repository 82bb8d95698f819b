// Package smtpout submits outbound replies over SMTP with STARTTLS.
package smtpout

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

type Sender struct {
	addr     string
	username string
	password string
}

// NewSender creates a sender that dials host:port with STARTTLS and PLAIN
// auth for each submission. Connections are not pooled; the poller sends at
// most a handful of replies per cycle.
func NewSender(host string, port int, username, password string) *Sender {
	return &Sender{
		addr:     fmt.Sprintf("%s:%d", host, port),
		username: username,
		password: password,
	}
}

func (s *Sender) Send(from string, to []string, raw []byte) error {
	auth := sasl.NewPlainClient("", s.username, s.password)
	if err := smtp.SendMail(s.addr, auth, from, to, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("smtp send to %v failed: %w", to, err)
	}
	return nil
}
