package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPChannel relays mail through an SMTP server. With an explicit sender
// the message carries a display From header; without it only the envelope
// sender is set and the relay fills in the rest.
type SMTPChannel struct {
	name           string
	host           string
	port           string
	username       string
	password       string
	fromName       string
	explicitSender bool
	sendMail       sendMailFunc
}

func NewSMTPChannel(host, port, username, password, fromName string, explicitSender bool) *SMTPChannel {
	name := "smtp"
	if explicitSender {
		name = "smtp-sender"
	}
	return &SMTPChannel{
		name:           name,
		host:           host,
		port:           port,
		username:       username,
		password:       password,
		fromName:       fromName,
		explicitSender: explicitSender,
		sendMail:       smtp.SendMail,
	}
}

func (s *SMTPChannel) Name() string { return s.name }

func (s *SMTPChannel) Send(ctx context.Context, msg Message) error {
	body := s.compose(msg)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	// net/smtp has no context support; the send keeps running in the
	// background when ctx ends first.
	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.host+":"+s.port, auth, s.username, []string{msg.To}, body)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SMTPChannel) compose(msg Message) []byte {
	var b strings.Builder
	if s.explicitSender {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", s.fromName, s.username)
		fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	if msg.HTML != "" {
		b.WriteString(msg.HTML)
	} else {
		b.WriteString(msg.Text)
	}
	return []byte(b.String())
}
