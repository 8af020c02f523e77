package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStreamPublisher appends events to a Redis stream. Used when Redis is
// available but no Kafka brokers are configured.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// XADD stream MAXLEN ~ n * type <t> key <k> data <json>
	args := &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": event.Type,
			"key":  event.Key,
			"data": string(data),
		},
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

// Close is a no-op; the client is shared with the cache.
func (p *RedisStreamPublisher) Close() error { return nil }
