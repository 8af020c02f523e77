package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"label-cabinet/backstage/internal/logging"
)

// DefaultChannel is the Redis pub/sub channel shared by all instances.
const DefaultChannel = "backstage:realtime"

// RedisBridge relays events between instances over Redis pub/sub.
type RedisBridge struct {
	client  *redis.Client
	channel string
}

func NewRedisBridge(client *redis.Client, channel string) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{client: client, channel: channel}
}

func (b *RedisBridge) Broadcast(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run subscribes to the channel and dispatches every received event to the
// local hub until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context, hub *Hub) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("realtime channel %s closed", b.channel)
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logging.Warn("Dropping malformed realtime message", "error", err)
				continue
			}
			hub.Dispatch(ev)
		}
	}
}
