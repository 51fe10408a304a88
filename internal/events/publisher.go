// Package events broadcasts session lifecycle notifications so dependent
// components (UI, balance views) can refresh. Delivery is fire-and-forget;
// this is a notification channel, not a guaranteed queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// SessionTopic is the watermill topic session events are published on.
const SessionTopic = "keyward.session"

// Kind identifies the session state change carried by an event.
type Kind string

// Session event kinds.
const (
	KindSessionCreated   Kind = "session_created"
	KindSessionRefreshed Kind = "session_refreshed"
	KindSessionCleared   Kind = "session_cleared"
)

// SessionEvent is the payload for session change notifications.
type SessionEvent struct {
	Kind      Kind      `json:"kind"`
	SessionID string    `json:"session_id,omitempty"`
	Address   string    `json:"address,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher publishes session change events.
type Publisher interface {
	PublishSessionChanged(ctx context.Context, event SessionEvent) error
}

// WatermillPublisher implements Publisher using a watermill message bus.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a publisher on the session topic.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     SessionTopic,
	}
}

// PublishSessionChanged publishes a session change event.
func (p *WatermillPublisher) PublishSessionChanged(_ context.Context, event SessionEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling session event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publishing session event: %w", err)
	}

	return nil
}

// NopPublisher discards all events. Used when no bus is wired.
type NopPublisher struct{}

// PublishSessionChanged discards the event.
func (NopPublisher) PublishSessionChanged(context.Context, SessionEvent) error {
	return nil
}
