// Package events publishes domain events to downstream consumers
// (accounting exports, notifications).
package events

import (
	"context"
	"encoding/json"
	"time"

	"label-cabinet/backstage/internal/logging"
)

const (
	WithdrawalRequested     = "withdrawal.requested"
	WithdrawalStatusChanged = "withdrawal.status_changed"
	PayoutCreated           = "payout.created"
	ReleaseStatusChanged    = "release.status_changed"
)

// DefaultStream is the Redis stream used when Kafka is not configured.
const DefaultStream = "backstage:events"

// Event is one domain fact. Key orders events of the same aggregate.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType, key string, payload any) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the structured log only.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher { return &LogPublisher{} }

func (LogPublisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	logging.Info("Domain event", "type", event.Type, "key", event.Key, "payload", string(data))
	return nil
}

func (LogPublisher) Close() error { return nil }

// PublishAsync publishes in the background with its own timeout and only
// logs failures. Callers have already committed the state change.
func PublishAsync(p Publisher, event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			logging.Warn("Failed to publish domain event", "type", event.Type, "key", event.Key, "error", err)
		}
	}()
}
