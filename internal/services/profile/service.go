package profile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ciocnim/arena/internal/dependencies/clock"
	"github.com/ciocnim/arena/internal/dependencies/random"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/storage"
)

// GrantConfig sets the golden egg acquisition odds. Both values are
// permyriad (parts per ten thousand) and deliberately configurable: the
// exact probabilities vary across observed deployments and should be
// confirmed before launch.
type GrantConfig struct {
	// MatchmakingPermyriad is the flat roll at matchmaking time
	// (default 10 = 0.1%)
	MatchmakingPermyriad int
	// HourlyPermyriad is the rehydration roll (default 500 = 5%),
	// evaluated at most once per RollInterval
	HourlyPermyriad int
	// RollInterval gates the rehydration roll (default 1h)
	RollInterval time.Duration
}

// DefaultGrantConfig returns the default golden egg odds
func DefaultGrantConfig() GrantConfig {
	return GrantConfig{
		MatchmakingPermyriad: 10,
		HourlyPermyriad:      500,
		RollInterval:         time.Hour,
	}
}

// Service manages persistent client profiles and golden egg grants
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	grants  GrantConfig
	logger  *slog.Logger
}

// New creates a profile Service
func New(store storage.Storage, clk clock.Clock, rnd random.Random, grants GrantConfig, logger *slog.Logger) *Service {
	if grants.RollInterval == 0 {
		grants = DefaultGrantConfig()
	}
	return &Service{
		storage: store,
		clock:   clk,
		random:  rnd,
		grants:  grants,
		logger:  logger.With(slog.String("component", "profile-service")),
	}
}

// Bootstrap creates a profile on first visit. The display name is
// required; identity-bearing fields are never defaulted.
func (s *Service) Bootstrap(ctx context.Context, displayName string, appearance model.Appearance) (*model.Profile, error) {
	if strings.TrimSpace(displayName) == "" {
		return nil, model.ErrEmptyDisplayName
	}
	if appearance.Skin == "" {
		appearance.Skin = model.SkinRed
	}

	now := s.clock.Now()
	profile := &model.Profile{
		Token:       model.ProfileToken(uuid.NewString()),
		DisplayName: displayName,
		Appearance:  appearance,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storage.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Rehydrate loads a profile on revisit and runs the hourly-gated golden
// egg roll. The roll never fires while an unconsumed token is held, and
// at most once per rolling interval whatever its outcome.
func (s *Service) Rehydrate(ctx context.Context, token model.ProfileToken) (*model.Profile, error) {
	profile, err := s.storage.GetProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !profile.GoldenEgg && now.Sub(profile.LastGoldenRoll) >= s.grants.RollInterval {
		profile.LastGoldenRoll = now
		if s.random.Intn(10000) < s.grants.HourlyPermyriad {
			profile.GoldenEgg = true
			s.logger.Info("golden egg granted",
				slog.String("token", string(token)),
				slog.String("source", "hourly"))
		}
		profile.UpdatedAt = now
		if err := s.storage.SaveProfile(ctx, profile); err != nil {
			return nil, err
		}
	}

	return profile, nil
}

// MatchmakingRoll runs the flat golden egg roll performed when a player
// enters matchmaking. No-op if the profile already holds a token.
func (s *Service) MatchmakingRoll(ctx context.Context, token model.ProfileToken) (*model.Profile, error) {
	profile, err := s.storage.GetProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	if profile.GoldenEgg {
		return profile, nil
	}

	if s.random.Intn(10000) < s.grants.MatchmakingPermyriad {
		profile.GoldenEgg = true
		profile.UpdatedAt = s.clock.Now()
		if err := s.storage.SaveProfile(ctx, profile); err != nil {
			return nil, err
		}
		s.logger.Info("golden egg granted",
			slog.String("token", string(token)),
			slog.String("source", "matchmaking"))
	}

	return profile, nil
}

// RecordResult updates lifetime stats after a round. goldenConsumed is
// true when the golden egg decided the round and must be spent.
func (s *Service) RecordResult(ctx context.Context, token model.ProfileToken, won, goldenConsumed bool) (*model.Profile, error) {
	profile, err := s.storage.GetProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	if won {
		profile.Wins++
	} else {
		profile.Losses++
	}
	if goldenConsumed {
		profile.GoldenEgg = false
	}
	profile.UpdatedAt = s.clock.Now()

	if err := s.storage.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetTeam records the profile's team membership for rehydration
func (s *Service) SetTeam(ctx context.Context, token model.ProfileToken, teamID model.TeamID) error {
	profile, err := s.storage.GetProfile(ctx, token)
	if err != nil {
		return err
	}
	profile.TeamID = teamID
	profile.UpdatedAt = s.clock.Now()
	return s.storage.SaveProfile(ctx, profile)
}
