package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ciocnim/arena/internal/model"
)

// RedisBroker fans events out through Redis pub/sub. Redis gives
// at-most-once per connection but at-least-once as seen by the protocol
// once reconnects are in play; handlers stay idempotent either way.
type RedisBroker struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisBroker creates a broker on an existing Redis client
func NewRedisBroker(client *redis.Client, logger *slog.Logger) *RedisBroker {
	return &RedisBroker{
		client: client,
		logger: logger.With(slog.String("component", "pubsub-redis")),
	}
}

var _ Broker = (*RedisBroker)(nil)

// Publish sends an envelope to a channel
func (b *RedisBroker) Publish(ctx context.Context, channel string, event model.EventType, payload any) error {
	env, err := Marshal(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, data).Err()
}

// Subscribe attaches a handler to a channel. Delivery runs on a
// dedicated goroutine until the subscription is closed or the context
// is cancelled.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error) {
	ps := b.client.Subscribe(ctx, channel)

	// Confirm the subscription before returning so no events published
	// after Subscribe are missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	go func() {
		for msg := range ps.Channel() {
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping malformed envelope",
					slog.String("channel", channel),
					slog.String("error", err.Error()))
				continue
			}
			h(env)
		}
	}()

	return &redisSub{ps: ps}, nil
}

type redisSub struct {
	ps *redis.PubSub
}

func (s *redisSub) Close() error {
	return s.ps.Close()
}
