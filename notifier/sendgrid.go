package notifier

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridHost = "https://api.sendgrid.com"

// SendGridChannel sends authenticated transactional email through the
// SendGrid v3 API.
type SendGridChannel struct {
	apiKey   string
	host     string
	from     string
	fromName string
}

func NewSendGridChannel(apiKey, from, fromName string) *SendGridChannel {
	return &SendGridChannel{apiKey: apiKey, host: sendGridHost, from: from, fromName: fromName}
}

func (s *SendGridChannel) Name() string { return "sendgrid" }

func (s *SendGridChannel) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)

	request := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(m)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
