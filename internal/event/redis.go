package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/osse101/BrandishRaffle_Go/internal/logger"
)

// RedisPublisher is the subset of *redis.Client used for forwarding
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisForwarder relays bus events to a Redis pub/sub channel so that
// chat bots and overlays outside this process can react to them.
type RedisForwarder struct {
	client  RedisPublisher
	channel string
}

// NewRedisForwarder creates a forwarder for the given channel
func NewRedisForwarder(client RedisPublisher, channel string) *RedisForwarder {
	return &RedisForwarder{client: client, channel: channel}
}

// Handle is an event Handler that publishes the event as JSON
func (f *RedisForwarder) Handle(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgRedisMarshal, err)
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		logger.FromContext(ctx).Warn(LogMsgRedisForwardFailed, "event_type", evt.Type, "tenant_id", TenantOf(evt), "channel", f.channel, "error", err)
		return fmt.Errorf("%s: %w", ErrMsgRedisPublish, err)
	}
	return nil
}

// Register subscribes the forwarder to every raffle event type
func (f *RedisForwarder) Register(bus Bus) {
	for _, t := range AllRaffleTypes {
		bus.Subscribe(t, f.Handle)
	}
}
