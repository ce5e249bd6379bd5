package pubsub

import (
	"context"
	"encoding/json"

	"github.com/ciocnim/arena/internal/model"
)

// Envelope is the wire format carried on every channel
type Envelope struct {
	Event   model.EventType `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Handler receives every envelope delivered on a subscribed channel.
// Delivery is at-least-once and unordered across publishers; handlers
// must be idempotent.
type Handler func(env Envelope)

// Subscription is a handle to an active channel subscription
type Subscription interface {
	// Close stops delivery to this subscription's handler
	Close() error
}

// Broker is the opaque broadcast transport the protocol is built on.
// Publish is fire-and-forget from the caller's point of view: failures
// are returned for logging but callers must not block round progress
// on delivery confirmation.
type Broker interface {
	Publish(ctx context.Context, channel string, event model.EventType, payload any) error
	Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error)
}

// Marshal builds an envelope from an event name and payload value
func Marshal(event model.EventType, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Payload: data}, nil
}
