package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// SMSChannel delivers codes through a DLT-template SMS gateway
// (fast2sms bulkV2 style query API).
type SMSChannel struct {
	client     *resty.Client
	apiURL     string
	apiKey     string
	senderID   string
	templateID string
}

func NewSMSChannel(apiURL, apiKey, senderID, templateID string) *SMSChannel {
	return &SMSChannel{
		client:     resty.New().SetTimeout(15 * time.Second),
		apiURL:     apiURL,
		apiKey:     apiKey,
		senderID:   senderID,
		templateID: templateID,
	}
}

func (s *SMSChannel) Name() string { return "sms" }

type smsResponse struct {
	Return  bool        `json:"return"`
	Message interface{} `json:"message"`
}

func (s *SMSChannel) Send(ctx context.Context, msg Message) error {
	if msg.Code == "" {
		return errors.New("sms channel only carries codes")
	}
	minutes := int(msg.TTL / time.Minute)
	if minutes <= 0 {
		minutes = 10
	}

	var out smsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"authorization":    s.apiKey,
			"route":            "dlt",
			"sender_id":        s.senderID,
			"message":          s.templateID,
			"variables_values": fmt.Sprintf("%s|%d", msg.Code, minutes),
			"flash":            "0",
			"numbers":          strings.TrimPrefix(msg.To, "+"),
		}).
		SetResult(&out).
		Get(s.apiURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway status %d", resp.StatusCode())
	}
	if !out.Return {
		return fmt.Errorf("sms gateway rejected message: %v", out.Message)
	}
	return nil
}
