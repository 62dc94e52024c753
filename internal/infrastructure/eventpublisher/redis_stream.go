package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nxfinance/loans/internal/domain"
)

// streamPrefix namespaces per-event-type streams, e.g. events:loan.approved.
const streamPrefix = "events:"

// RedisStreamPublisher appends events to Redis streams, one stream per
// event type. Consumers dedupe on event_id.
type RedisStreamPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher. maxLen caps each stream
// approximately; zero leaves streams uncapped.
func NewRedisStreamPublisher(client *redis.Client, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, maxLen: maxLen}
}

// StreamName returns the stream an event type is written to.
func StreamName(eventType string) string {
	return streamPrefix + eventType
}

// Publish appends event to its stream.
func (p *RedisStreamPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload for event %s: %w", event.ID, err)
	}

	args := &redis.XAddArgs{
		Stream: StreamName(event.EventType),
		Values: map[string]any{
			"event_id":       event.ID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
			"payload":        string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd event %s: %w", event.ID, err)
	}
	return nil
}
