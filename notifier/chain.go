package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

var (
	ErrDeliveryFailed = errors.New("all delivery channels failed")
	ErrNoChannels     = errors.New("no delivery channel configured")
)

// Message is one notification. Email channels use Subject and HTML, SMS
// channels use Text or the Code template variables.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Code    string
	TTL     time.Duration
}

// Channel is a single delivery route.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Attempt records one try on one channel.
type Attempt struct {
	Channel  string        `json:"channel"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report describes how a delivery went.
type Report struct {
	Delivered bool      `json:"delivered"`
	Channel   string    `json:"channel,omitempty"`
	Attempts  []Attempt `json:"attempts"`
}

// Chain tries its channels in order until one succeeds. Every attempt
// gets its own timeout and a failing or panicking channel never stops the
// next one from running.
type Chain struct {
	channels []Channel
	timeout  time.Duration
}

func NewChain(timeout time.Duration, channels ...Channel) *Chain {
	return &Chain{channels: channels, timeout: timeout}
}

func (c *Chain) Len() int { return len(c.channels) }

func (c *Chain) Deliver(ctx context.Context, msg Message) (Report, error) {
	report := Report{}
	if len(c.channels) == 0 {
		return report, fmt.Errorf("%w: %w", ErrDeliveryFailed, ErrNoChannels)
	}

	var errs []error
	for _, ch := range c.channels {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		err := c.attempt(ctx, ch, msg)
		a := Attempt{Channel: ch.Name(), Duration: time.Since(start)}
		if err == nil {
			report.Attempts = append(report.Attempts, a)
			report.Delivered = true
			report.Channel = ch.Name()
			return report, nil
		}

		a.Error = err.Error()
		report.Attempts = append(report.Attempts, a)
		errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		log.Printf("[NOTIFIER] %s failed for %s: %v", ch.Name(), maskRecipient(msg.To), err)
	}

	return report, fmt.Errorf("%w: %w", ErrDeliveryFailed, errors.Join(errs...))
}

func (c *Chain) attempt(ctx context.Context, ch Channel, msg Message) (err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ch.Send(ctx, msg)
}

func maskRecipient(to string) string {
	if at := strings.IndexByte(to, '@'); at > 0 {
		return to[:1] + "***" + to[at:]
	}
	if len(to) > 4 {
		return "***" + to[len(to)-4:]
	}
	return "***"
}
