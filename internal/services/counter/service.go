package counter

import (
	"context"
	"log/slog"

	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/storage"
)

// Floor is the minimum value the global counter ever reports. Reads and
// increments below it are clamped up. This is a product decision, not a
// bug: the global tally must never look embarrassingly low.
const Floor = 9

// Service maintains the global resolved-rounds counter
type Service struct {
	storage storage.Storage
	broker  pubsub.Broker
	logger  *slog.Logger
}

// New creates a counter Service
func New(store storage.Storage, broker pubsub.Broker, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		broker:  broker,
		logger:  logger.With(slog.String("component", "counter-service")),
	}
}

// Total returns the clamped global tally. The clamp applies at read
// time as well as write time because the store is treated as eventually
// consistent.
func (s *Service) Total(ctx context.Context) (int64, error) {
	value, err := s.storage.GetResolvedRounds(ctx)
	if err != nil {
		return Floor, err
	}
	if value < Floor {
		return Floor, nil
	}
	return value, nil
}

// RecordResolvedRound atomically bumps the counter, clamps the result
// to the floor, and broadcasts the new tally on the global channel.
// Broadcast failure is logged, never surfaced: the tally is cosmetic
// relative to round resolution.
func (s *Service) RecordResolvedRound(ctx context.Context) (int64, error) {
	value, err := s.storage.IncrementResolvedRounds(ctx)
	if err != nil {
		return Floor, err
	}

	if value < Floor {
		// Store had no (or a too-low) value; pin it to the floor.
		// Concurrent clamps all write the same value, so this is safe.
		if err := s.storage.SetResolvedRounds(ctx, Floor); err != nil {
			s.logger.Warn("failed to pin counter floor", slog.String("error", err.Error()))
		}
		value = Floor
	}

	if err := s.broker.Publish(ctx, model.GlobalChannel, model.EventCounterUpdated,
		model.CounterUpdatedPayload{Total: value}); err != nil {
		s.logger.Warn("counter broadcast failed", slog.String("error", err.Error()))
	}

	return value, nil
}
