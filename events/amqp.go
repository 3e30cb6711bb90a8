package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "advisory.events"

// ErrBrokerUnavailable is returned without dialing while the publisher
// waits out the backoff that follows a failed connection.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// AMQPPublisher publishes JSON events to a durable topic exchange. The
// connection is opened lazily and reopened after a failure. A failed dial
// is not retried until backoff has passed.
type AMQPPublisher struct {
	url         string
	dialTimeout time.Duration
	backoff     time.Duration
	now         func() time.Time

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	retryAt   time.Time
	lastError error
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{
		url:         url,
		dialTimeout: 2 * time.Second,
		backoff:     30 * time.Second,
		now:         time.Now,
	}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	if t := p.now(); t.Before(p.retryAt) {
		return nil, fmt.Errorf("%w until %s: %v", ErrBrokerUnavailable, p.retryAt.Format(time.RFC3339), p.lastError)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		p.lastError = err
		p.retryAt = p.now().Add(p.backoff)
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchangeName, // name
		"topic",      // kind
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.retryAt, p.lastError = time.Time{}, nil
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		log.Printf("[EVENTS] %v", err)
		return err
	}

	err = ch.PublishWithContext(ctx,
		exchangeName, // exchange
		event.Type,   // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         event.Type,
			Body:         body,
		})
	if err != nil {
		log.Printf("[EVENTS] publish %s failed: %v", event.Type, err)
		p.closeLocked()
	}
	return err
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
