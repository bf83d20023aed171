package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/tracklab/studio-api/internal/model"
)

// TaskEventPublisher publishes task change notifications.
type TaskEventPublisher interface {
	PublishTaskEvent(ctx context.Context, event model.TaskEvent) error
}

// PubSub delivers task change notifications over Redis Pub/Sub, one
// channel per track. It implements both the publishing side used by
// workers and the studio.EventSource consumed by completion bridges.
type PubSub struct {
	redis *redis.Client
}

// NewPubSub creates a Redis-backed pub/sub transport.
func NewPubSub(redisClient *redis.Client) *PubSub {
	return &PubSub{redis: redisClient}
}

func channelFor(trackID string) string {
	return fmt.Sprintf("task-events:%s", trackID)
}

// PublishTaskEvent publishes an event to the track's channel. Delivery is
// at-least-once from the consumer's perspective; subscribers tolerate
// duplicates by overwriting state with the latest values.
func (p *PubSub) PublishTaskEvent(ctx context.Context, event model.TaskEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal task event: %w", err)
	}
	if err := p.redis.Publish(ctx, channelFor(event.TrackID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish task event: %w", err)
	}
	return nil
}

// Subscribe opens a subscription for one track. The returned stop function
// closes the underlying Redis channel; the event channel is closed once
// the subscription drains. Connection-level errors are left to go-redis's
// own reconnect behavior.
func (p *PubSub) Subscribe(ctx context.Context, trackID string) (<-chan model.TaskEvent, func(), error) {
	sub := p.redis.Subscribe(ctx, channelFor(trackID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to task events: %w", err)
	}

	events := make(chan model.TaskEvent, 16)
	go func() {
		defer close(events)
		for msg := range sub.Channel() {
			var event model.TaskEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("Dropping malformed task event on %s: %v", msg.Channel, err)
				continue
			}
			events <- event
		}
	}()

	stop := func() {
		if err := sub.Close(); err != nil {
			log.Printf("Failed to close task event subscription: %v", err)
		}
	}
	return events, stop, nil
}
