// Package events publishes domain events for downstream consumers (CRM
// sync, analytics). Publishing is best effort: failures are logged and
// never fail the request that produced the event.
package events

import (
	"context"
	"time"
)

// Routing keys
const (
	UserRegistered        = "user.registered"
	UserVerified          = "user.verified"
	SubscriptionActivated = "subscription.activated"
)

// Event is the envelope every message carries.
type Event struct {
	Type       string                 `json:"type"`
	UserID     uint                   `json:"userId,omitempty"`
	Email      string                 `json:"email"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Publisher sends events to the broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the event types in publish order.
func (r *Recorder) Types() []string {
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
