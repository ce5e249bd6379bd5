package clash

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ciocnim/arena/internal/dependencies/clock"
	"github.com/ciocnim/arena/internal/dependencies/random"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/services/counter"
	"github.com/ciocnim/arena/internal/services/profile"
	"github.com/ciocnim/arena/internal/services/team"
	"github.com/ciocnim/arena/internal/storage"
)

// Engine is the single authority for round outcomes. Exactly one
// result is computed per round, here and nowhere else; clients only
// interpret the broadcast boolean from their own role's perspective.
type Engine struct {
	storage  storage.Storage
	broker   pubsub.Broker
	counter  *counter.Service
	teams    *team.Service
	profiles *profile.Service
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewEngine creates the impact resolution engine
func NewEngine(
	store storage.Storage,
	broker pubsub.Broker,
	counterService *counter.Service,
	teamService *team.Service,
	profileService *profile.Service,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		storage:  store,
		broker:   broker,
		counter:  counterService,
		teams:    teamService,
		profiles: profileService,
		clock:    clk,
		random:   rnd,
		logger:   logger.With(slog.String("component", "clash-engine")),
	}
}

// Request is a clash-requested signal relayed to the authority
type Request struct {
	RoomID    model.RoomID
	Role      model.Role
	GoldenEgg bool
	// ProfileToken, when present, receives the requester's win/loss
	// side effects
	ProfileToken model.ProfileToken
	// TeamID attributes the win to a team ranking
	TeamID model.TeamID
}

// RegisterReady records one side's handshake config on the room record
// so the engine can see golden egg flags and display names at
// resolution time
func (e *Engine) RegisterReady(ctx context.Context, roomID model.RoomID, cfg model.ParticipantConfig) error {
	if !cfg.Role.Valid() {
		return model.ErrInvalidRole
	}
	room := e.getOrCreateRoom(ctx, roomID)
	room.Participants[cfg.Role] = cfg
	room.UpdatedAt = e.clock.Now()
	return e.storage.SaveRoom(ctx, room)
}

// RegisterJoin records a join announcement. A config riding on the join
// is registered like a ready, and an identified participant entering
// the room gets the flat matchmaking golden egg roll; a granted token
// shows up on the next profile read.
func (e *Engine) RegisterJoin(ctx context.Context, roomID model.RoomID, p model.JoinPayload) error {
	if p.Config == nil {
		return nil
	}
	if p.Config.Role.Valid() {
		if err := e.RegisterReady(ctx, roomID, *p.Config); err != nil {
			return err
		}
	}
	if p.Config.ProfileToken != "" {
		if _, err := e.profiles.MatchmakingRoll(ctx, p.Config.ProfileToken); err != nil {
			e.logger.Warn("matchmaking roll skipped",
				slog.String("room_id", string(roomID)),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// RegisterRematchVote records one side's rematch opt-in. When both
// sides have voted the room returns to the pre-round state, unlatching
// resolution for the next round.
func (e *Engine) RegisterRematchVote(ctx context.Context, roomID model.RoomID, role model.Role) error {
	if !role.Valid() {
		return model.ErrInvalidRole
	}
	room := e.getOrCreateRoom(ctx, roomID)
	room.RematchVotes[role] = true
	if room.BothWantRematch() {
		room.ResetForRematch(e.clock.Now())
		e.logger.Info("room reset for rematch", slog.String("room_id", string(roomID)))
	} else {
		room.UpdatedAt = e.clock.Now()
	}
	return e.storage.SaveRoom(ctx, room)
}

// Resolve computes the authoritative outcome for the room's current
// round. If a result already exists it is returned unchanged and no
// side effect repeats. The second return value reports whether this
// call produced the result.
//
// Priority: a golden egg wins unconditionally; when both sides hold
// one, the requester wins (longstanding behavior, kept as-is). Only
// then does the fair coin decide.
func (e *Engine) Resolve(ctx context.Context, req Request) (*model.Round, bool, error) {
	if !req.Role.Valid() {
		return nil, false, model.ErrInvalidRole
	}

	room := e.getOrCreateRoom(ctx, req.RoomID)
	if room.HasResult() {
		return room.Round, false, nil
	}

	requesterCfg, _ := room.Participant(req.Role)
	opponentCfg, opponentKnown := room.Participant(req.Role.Opposite())

	requesterGolden := req.GoldenEgg || requesterCfg.GoldenEgg
	opponentGolden := opponentKnown && opponentCfg.GoldenEgg

	var requesterWins, goldenDecided bool
	switch {
	case requesterGolden:
		requesterWins = true
		goldenDecided = true
	case opponentGolden:
		requesterWins = false
		goldenDecided = true
	default:
		requesterWins = e.random.Intn(2) == 1
	}

	ownerWins := requesterWins
	if req.Role == model.RoleChallenger {
		ownerWins = !requesterWins
	}

	now := e.clock.Now()
	round := &model.Round{
		ID:         model.RoundID(uuid.NewString()),
		Resolved:   true,
		OwnerWins:  ownerWins,
		ResolvedAt: now,
	}
	room.Round = round
	room.RematchVotes = make(map[model.Role]bool)
	room.UpdatedAt = now

	// a winning golden egg is spent whichever side sent the gesture
	if goldenDecided {
		winnerRole := req.Role
		if !requesterWins {
			winnerRole = winnerRole.Opposite()
		}
		if cfg, ok := room.Participant(winnerRole); ok && cfg.GoldenEgg {
			cfg.GoldenEgg = false
			room.Participants[winnerRole] = cfg
		}
	}

	// The broadcast must not be gated on persistence: a store outage
	// costs us idempotency bookkeeping, never the result delivery.
	if err := e.storage.SaveRoom(ctx, room); err != nil {
		e.logger.Warn("round not persisted",
			slog.String("room_id", string(req.RoomID)),
			slog.String("error", err.Error()))
	}

	if err := e.broker.Publish(ctx, model.RoomChannel(req.RoomID), model.EventImpactResult,
		model.ImpactResultPayload{RoundID: round.ID, OwnerWins: ownerWins}); err != nil {
		e.logger.Warn("impact result broadcast failed",
			slog.String("room_id", string(req.RoomID)),
			slog.String("error", err.Error()))
	}

	e.applySideEffects(ctx, req, room, requesterWins, goldenDecided)

	e.logger.Info("round resolved",
		slog.String("room_id", string(req.RoomID)),
		slog.String("round_id", string(round.ID)),
		slog.Bool("owner_wins", ownerWins),
		slog.Bool("golden_decided", goldenDecided))

	return round, true, nil
}

// applySideEffects runs the best-effort post-resolution bookkeeping.
// Every step degrades independently; none blocks the others. Tokens and
// the team id come from the request when present and fall back to the
// registered configs, so the side that never sent the gesture still has
// its stats and golden egg settled.
func (e *Engine) applySideEffects(ctx context.Context, req Request, room *model.Room, requesterWins, goldenDecided bool) {
	if _, err := e.counter.RecordResolvedRound(ctx); err != nil {
		e.logger.Warn("global counter not incremented",
			slog.String("room_id", string(req.RoomID)),
			slog.String("error", err.Error()))
	}

	requesterCfg, _ := room.Participant(req.Role)
	opponentCfg, opponentKnown := room.Participant(req.Role.Opposite())

	teamID := req.TeamID
	if teamID == "" {
		teamID = requesterCfg.TeamID
	}
	if teamID == "" && opponentKnown {
		teamID = opponentCfg.TeamID
	}
	if teamID != "" {
		winnerRole := req.Role
		if !requesterWins {
			winnerRole = req.Role.Opposite()
		}
		if winnerCfg, ok := room.Participant(winnerRole); ok {
			if err := e.teams.RecordWin(ctx, teamID, winnerCfg.DisplayName); err != nil {
				e.logger.Warn("team score not updated",
					slog.String("team_id", string(teamID)),
					slog.String("error", err.Error()))
			}
		} else {
			e.logger.Warn("winner unknown, team score skipped",
				slog.String("room_id", string(req.RoomID)))
		}
	}

	requesterToken := req.ProfileToken
	if requesterToken == "" {
		requesterToken = requesterCfg.ProfileToken
	}
	if requesterToken != "" {
		consumed := goldenDecided && requesterWins
		if _, err := e.profiles.RecordResult(ctx, requesterToken, requesterWins, consumed); err != nil {
			e.logger.Warn("profile stats not updated",
				slog.String("error", err.Error()))
		}
	}
	if opponentKnown && opponentCfg.ProfileToken != "" && opponentCfg.ProfileToken != requesterToken {
		consumed := goldenDecided && !requesterWins
		if _, err := e.profiles.RecordResult(ctx, opponentCfg.ProfileToken, !requesterWins, consumed); err != nil {
			e.logger.Warn("profile stats not updated",
				slog.String("error", err.Error()))
		}
	}
}

// getOrCreateRoom loads the room record, falling back to a fresh one.
// Rooms exist implicitly; a load failure degrades to in-call state
// rather than blocking resolution.
func (e *Engine) getOrCreateRoom(ctx context.Context, id model.RoomID) *model.Room {
	room, err := e.storage.GetRoom(ctx, id)
	if err == nil {
		return room
	}
	if err != model.ErrRoomNotFound {
		e.logger.Warn("room load failed",
			slog.String("room_id", string(id)),
			slog.String("error", err.Error()))
	}
	return model.NewRoom(id, e.clock.Now())
}
