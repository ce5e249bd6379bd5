package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ciocnim/arena/internal/model"
)

// MemoryBroker is an in-process broker. Delivery is synchronous and
// ordered per publisher, which also makes protocol tests deterministic.
// Subscribers receive their own published events, matching the naive
// fan-out of hosted pub/sub services; protocol handlers are expected to
// filter by role.
type MemoryBroker struct {
	mu       sync.RWMutex
	channels map[string]map[*memorySub]bool
	logger   *slog.Logger
}

type memorySub struct {
	broker  *MemoryBroker
	channel string
	handler Handler
}

// NewMemoryBroker creates a new in-memory broker
func NewMemoryBroker(logger *slog.Logger) *MemoryBroker {
	return &MemoryBroker{
		channels: make(map[string]map[*memorySub]bool),
		logger:   logger.With(slog.String("component", "pubsub-memory")),
	}
}

var _ Broker = (*MemoryBroker)(nil)

// Publish delivers an envelope to every subscriber of the channel.
// Handlers run outside the broker lock so they may publish reentrantly.
func (b *MemoryBroker) Publish(ctx context.Context, channel string, event model.EventType, payload any) error {
	env, err := Marshal(event, payload)
	if err != nil {
		return err
	}

	b.mu.RLock()
	subs := make([]*memorySub, 0, len(b.channels[channel]))
	for sub := range b.channels[channel] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(env)
	}
	return nil
}

// Subscribe registers a handler on a channel. The channel comes into
// existence with its first subscriber.
func (b *MemoryBroker) Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error) {
	sub := &memorySub{broker: b, channel: channel, handler: h}

	b.mu.Lock()
	if b.channels[channel] == nil {
		b.channels[channel] = make(map[*memorySub]bool)
	}
	b.channels[channel][sub] = true
	subCount := len(b.channels[channel])
	b.mu.Unlock()

	b.logger.Debug("subscribed",
		slog.String("channel", channel),
		slog.Int("subscribers", subCount))
	return sub, nil
}

// SubscriberCount returns the number of active subscriptions on a channel
func (b *MemoryBroker) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

// Close removes the subscription; the channel disappears with its last
// subscriber
func (s *memorySub) Close() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	if subs, ok := s.broker.channels[s.channel]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.broker.channels, s.channel)
		}
	}
	return nil
}
