package notifier

import (
	"advisory/config"
	"advisory/models"
	"context"
	"log"
	"time"
)

// Notifier routes messages to the email or SMS chain.
type Notifier struct {
	email *Chain
	sms   *Chain
}

func New(email, sms *Chain) *Notifier {
	if email == nil {
		email = NewChain(0)
	}
	if sms == nil {
		sms = NewChain(0)
	}
	return &Notifier{email: email, sms: sms}
}

// NewFromConfig builds the chains from configuration, skipping channels
// whose credentials are missing. Email order: SendGrid, SMTP with explicit
// sender, plain SMTP.
func NewFromConfig(cfg *config.Config) *Notifier {
	var emailChannels []Channel
	if cfg.SendGridAPIKey != "" && cfg.EmailSender != "" {
		emailChannels = append(emailChannels, NewSendGridChannel(cfg.SendGridAPIKey, cfg.EmailSender, cfg.EmailSenderName))
	}
	if cfg.EmailSender != "" && cfg.Password != "" {
		emailChannels = append(emailChannels,
			NewSMTPChannel(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailSender, cfg.Password, cfg.EmailSenderName, true),
			NewSMTPChannel(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailSender, cfg.Password, cfg.EmailSenderName, false),
		)
	}

	var smsChannels []Channel
	if cfg.SMSApiKey != "" {
		smsChannels = append(smsChannels, NewSMSChannel(cfg.SMSApiURL, cfg.SMSApiKey, cfg.SMSSenderID, cfg.SMSTemplateID))
	}

	if len(emailChannels) == 0 {
		log.Println("Warning: no email channel configured. OTP emails will not be delivered.")
	}
	return New(NewChain(cfg.NotifyTimeout, emailChannels...), NewChain(cfg.NotifyTimeout, smsChannels...))
}

// SendOTP delivers a code to an email address or phone number.
func (n *Notifier) SendOTP(ctx context.Context, identity, channel, code string, ttl time.Duration) (Report, error) {
	if channel == models.ChannelPhone {
		return n.sms.Deliver(ctx, Message{To: identity, Code: code, TTL: ttl})
	}
	subject, body := OTPEmail(code, ttl)
	return n.email.Deliver(ctx, Message{To: identity, Subject: subject, HTML: body, Code: code, TTL: ttl})
}

// SendEmail delivers a rendered email through the email chain.
func (n *Notifier) SendEmail(ctx context.Context, to, subject, html string) error {
	_, err := n.email.Deliver(ctx, Message{To: to, Subject: subject, HTML: html})
	return err
}
