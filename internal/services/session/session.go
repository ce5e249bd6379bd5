package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ciocnim/arena/internal/dependencies/clock"
	"github.com/ciocnim/arena/internal/dependencies/random"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
)

// SearchTimeout is how long the fallback matchmaker waits for a human
// opponent before substituting the bot.
const SearchTimeout = 6 * time.Second

// TickInterval is the matchmaker's polling cadence
const TickInterval = 1 * time.Second

// MatchState tracks where a session stands in finding an opponent
type MatchState string

const (
	// MatchIdle means the session has not joined a room
	MatchIdle MatchState = "idle"
	// MatchWaiting means the session is in the room with no opponent yet
	MatchWaiting MatchState = "waiting"
	// MatchMatched means a human opponent's config has been received
	MatchMatched MatchState = "matched"
	// MatchBotSubstituted means the matchmaker timed out and the
	// synthetic opponent was installed
	MatchBotSubstituted MatchState = "bot_substituted"
)

// RematchState tracks the post-round consensus. OpponentLeft is
// terminal and deliberately distinct from AwaitingOpponent: a session
// whose opponent left must never appear to be waiting on a vote.
type RematchState string

const (
	RematchNone             RematchState = "none"
	RematchAwaitingOpponent RematchState = "awaiting_opponent"
	RematchOpponentLeft     RematchState = "opponent_left"
	RematchAgreed           RematchState = "agreed"
)

// Result is the round outcome as seen from this session's side
type Result struct {
	RoundID   model.RoundID
	Won       bool
	OwnerWins bool
	ViaBot    bool
}

// Callbacks are the optional hooks a frontend wires in. All are invoked
// outside the session lock; any may be nil.
type Callbacks struct {
	OnOpponentJoined func(cfg model.ParticipantConfig)
	OnResult         func(res Result)
	OnRematchAgreed  func()
	OnOpponentLeft   func(displayName string)
	OnReaction       func(p model.ReactionPayload)
	OnChat           func(p model.ChatMessagePayload)
}

// Snapshot is a point-in-time copy of the session's observable state
type Snapshot struct {
	MatchState   MatchState
	RematchState RematchState
	Opponent     *model.ParticipantConfig
	LastResult   *Result
	OpponentLeft bool
}

// Session drives one participant's side of a room: the symmetric
// handshake, the fallback matchmaker and the rematch consensus. It
// holds no authority over outcomes; the resolution engine broadcasts
// those and the session only interprets them for its own role.
type Session struct {
	broker    pubsub.Broker
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
	callbacks Callbacks

	roomID model.RoomID
	role   model.Role

	mu             sync.Mutex
	searchTimeout  time.Duration
	sub            pubsub.Subscription
	self           *model.ParticipantConfig
	opponent       *model.ParticipantConfig
	matchState     MatchState
	rematchState   RematchState
	selfVote       bool
	opponentVote   bool
	opponentGone   bool
	lastResult     *Result
	searchDeadline time.Time
}

// New creates a session for one side of a room
func New(
	broker pubsub.Broker,
	clk clock.Clock,
	rnd random.Random,
	roomID model.RoomID,
	role model.Role,
	callbacks Callbacks,
	logger *slog.Logger,
) *Session {
	return &Session{
		broker:        broker,
		clock:         clk,
		random:        rnd,
		logger:        logger.With(slog.String("room_id", string(roomID)), slog.String("role", string(role))),
		callbacks:     callbacks,
		roomID:        roomID,
		role:          role,
		searchTimeout: SearchTimeout,
		matchState:    MatchIdle,
		rematchState:  RematchNone,
	}
}

// SetSearchTimeout overrides the matchmaker threshold. Must be called
// before StartSearch.
func (s *Session) SetSearchTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.searchTimeout = d
	}
}

// Join subscribes to the room channel and announces this participant.
// If a config was already chosen it rides along on the announcement so
// an already-present opponent can converge in a single exchange.
func (s *Session) Join(ctx context.Context) error {
	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	sub, err := s.broker.Subscribe(ctx, model.RoomChannel(s.roomID), func(env pubsub.Envelope) {
		s.handleEvent(ctx, env)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	if s.matchState == MatchIdle {
		s.matchState = MatchWaiting
	}
	payload := model.JoinPayload{Role: s.role}
	if s.self != nil {
		payload.DisplayName = s.self.DisplayName
		cfg := *s.self
		payload.Config = &cfg
	}
	s.mu.Unlock()

	return s.broker.Publish(ctx, model.RoomChannel(s.roomID), model.EventJoin, payload)
}

// ChooseConfig locks in this side's configuration. If the session has
// already joined, the ready message goes out immediately; otherwise it
// is carried on the join announcement.
func (s *Session) ChooseConfig(ctx context.Context, cfg model.ParticipantConfig) error {
	if cfg.DisplayName == "" {
		return model.ErrEmptyDisplayName
	}
	cfg.Role = s.role

	s.mu.Lock()
	s.self = &cfg
	joined := s.sub != nil
	s.mu.Unlock()

	if !joined {
		return nil
	}
	return s.publishReady(ctx, false)
}

// RequestState asks whoever is in the room to resend their ready, used
// after a reconnect when local opponent state may be stale.
func (s *Session) RequestState(ctx context.Context) error {
	return s.broker.Publish(ctx, model.RoomChannel(s.roomID), model.EventRequestState,
		model.JoinPayload{Role: s.role})
}

// StartSearch arms the fallback matchmaker deadline. A no-op once an
// opponent is present.
func (s *Session) StartSearch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.matchState == MatchMatched || s.matchState == MatchBotSubstituted {
		return
	}
	s.matchState = MatchWaiting
	s.searchDeadline = now.Add(s.searchTimeout)
}

// Tick advances the matchmaker. When the deadline has passed with no
// human opponent, the bot is installed and Tick reports true. A human
// ready that lands between the deadline and the tick still wins; the
// substitution only happens here.
func (s *Session) Tick(now time.Time) bool {
	s.mu.Lock()
	if s.matchState != MatchWaiting || s.searchDeadline.IsZero() || now.Before(s.searchDeadline) {
		s.mu.Unlock()
		return false
	}
	bot := model.BotConfig(s.role.Opposite())
	s.opponent = &bot
	s.matchState = MatchBotSubstituted
	cb := s.callbacks.OnOpponentJoined
	s.mu.Unlock()

	s.logger.Info("matchmaker timed out, bot substituted")
	if cb != nil {
		cb(bot)
	}
	return true
}

// RunTicker drives Tick on a wall-clock cadence until a substitution
// happens or the context ends
func (s *Session) RunTicker(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Tick(s.clock.Now()) {
				return
			}
		}
	}
}

// RequestClash signals the impact gesture. Against a human opponent the
// signal travels to the resolution authority and the outcome arrives as
// a broadcast; against the bot the round resolves locally with the same
// priority rules and no network round trip.
func (s *Session) RequestClash(ctx context.Context) error {
	s.mu.Lock()
	if s.opponentGone {
		s.mu.Unlock()
		return model.ErrOpponentLeft
	}
	if s.self == nil {
		s.mu.Unlock()
		return model.ErrConfigNotChosen
	}
	if s.lastResult != nil {
		s.mu.Unlock()
		return model.ErrAlreadyResolved
	}

	if s.matchState == MatchBotSubstituted {
		res := s.resolveAgainstBotLocked()
		cb := s.callbacks.OnResult
		s.mu.Unlock()
		if cb != nil {
			cb(res)
		}
		return nil
	}

	if s.matchState != MatchMatched {
		s.mu.Unlock()
		return model.ErrNoOpponent
	}
	payload := model.ClashRequestedPayload{
		Role:         s.role,
		GoldenEgg:    s.self.GoldenEgg,
		ProfileToken: s.self.ProfileToken,
		TeamID:       s.self.TeamID,
	}
	s.mu.Unlock()

	return s.broker.Publish(ctx, model.RoomChannel(s.roomID), model.EventClashRequested, payload)
}

// resolveAgainstBotLocked settles a bot round. The bot never holds a
// golden egg, so a held token always wins; otherwise the coin decides.
func (s *Session) resolveAgainstBotLocked() Result {
	won := s.self.GoldenEgg
	golden := s.self.GoldenEgg
	if !won {
		won = s.random.Intn(2) == 1
	}
	if won && golden {
		s.self.GoldenEgg = false
	}
	ownerWins := won
	if s.role == model.RoleChallenger {
		ownerWins = !won
	}
	res := Result{
		RoundID:   model.RoundID(uuid.NewString()),
		Won:       won,
		OwnerWins: ownerWins,
		ViaBot:    true,
	}
	s.lastResult = &res
	s.rematchState = RematchNone
	return res
}

// RequestRematch casts this side's rematch vote. Consensus needs both
// explicit votes; a single vote leaves the session awaiting the
// opponent. Against the bot, consent is immediate.
func (s *Session) RequestRematch(ctx context.Context) error {
	s.mu.Lock()
	if s.opponentGone {
		s.mu.Unlock()
		return model.ErrOpponentLeft
	}
	if s.lastResult == nil {
		s.mu.Unlock()
		return model.ErrNoResult
	}

	if s.matchState == MatchBotSubstituted {
		s.resetRoundLocked()
		bot := model.BotConfig(s.role.Opposite())
		s.opponent = &bot
		s.rematchState = RematchAgreed
		cb := s.callbacks.OnRematchAgreed
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
		return nil
	}

	s.selfVote = true
	agreed := s.opponentVote
	if agreed {
		s.resetRoundLocked()
		s.rematchState = RematchAgreed
	} else {
		s.rematchState = RematchAwaitingOpponent
	}
	cb := s.callbacks.OnRematchAgreed
	s.mu.Unlock()

	if err := s.broker.Publish(ctx, model.RoomChannel(s.roomID), model.EventRematchRequest,
		model.RematchRequestPayload{Role: s.role}); err != nil {
		return err
	}
	if agreed && cb != nil {
		cb()
	}
	return nil
}

// resetRoundLocked returns the session to the pre-round state. Both
// chosen configs are cleared; each side must re-select before the next
// round can start.
func (s *Session) resetRoundLocked() {
	s.lastResult = nil
	s.selfVote = false
	s.opponentVote = false
	s.self = nil
	s.opponent = nil
}

// SendReaction relays an ephemeral emoji to the room
func (s *Session) SendReaction(ctx context.Context, emoji string) error {
	s.mu.Lock()
	if s.self == nil {
		s.mu.Unlock()
		return model.ErrConfigNotChosen
	}
	from := s.self.DisplayName
	s.mu.Unlock()
	return s.broker.Publish(ctx, model.RoomChannel(s.roomID), model.EventReaction,
		model.ReactionPayload{From: from, Emoji: emoji})
}

// SendChat relays an in-room chat line
func (s *Session) SendChat(ctx context.Context, text string) error {
	if text == "" {
		return model.ErrEmptyMessage
	}
	s.mu.Lock()
	if s.self == nil {
		s.mu.Unlock()
		return model.ErrConfigNotChosen
	}
	from := s.self.DisplayName
	s.mu.Unlock()
	return s.broker.Publish(ctx, model.RoomChannel(s.roomID), model.EventChatMessage,
		model.ChatMessagePayload{From: from, Text: text, SentAt: s.clock.Now()})
}

// Leave announces a deliberate exit and stops delivery. The opponent
// observes this as the terminal opponent-left state.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.matchState = MatchIdle
	payload := model.ParticipantLeftPayload{Role: s.role}
	if s.self != nil {
		payload.DisplayName = s.self.DisplayName
	}
	s.mu.Unlock()

	if sub == nil {
		return nil
	}
	err := s.broker.Publish(ctx, model.RoomChannel(s.roomID), model.EventParticipantLeft, payload)
	if cerr := sub.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// State returns a copy of the session's observable state
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		MatchState:   s.matchState,
		RematchState: s.rematchState,
		OpponentLeft: s.opponentGone,
	}
	if s.opponent != nil {
		cfg := *s.opponent
		snap.Opponent = &cfg
	}
	if s.lastResult != nil {
		res := *s.lastResult
		snap.LastResult = &res
	}
	return snap
}

// publishReady sends this side's config to the room
func (s *Session) publishReady(ctx context.Context, isReply bool) error {
	s.mu.Lock()
	if s.self == nil {
		s.mu.Unlock()
		return model.ErrConfigNotChosen
	}
	payload := model.ReadyPayload{Config: *s.self, IsReply: isReply}
	s.mu.Unlock()
	return s.broker.Publish(ctx, model.RoomChannel(s.roomID), model.EventReady, payload)
}

// handleEvent dispatches one envelope from the room channel. Own-role
// events are dropped before any state is touched; the broker delivers
// to every subscriber including the publisher.
func (s *Session) handleEvent(ctx context.Context, env pubsub.Envelope) {
	switch env.Event {
	case model.EventJoin:
		var p model.JoinPayload
		if !s.decode(env, &p) || p.Role == s.role {
			return
		}
		s.onOpponentAnnounce(ctx, p.Config)
	case model.EventRequestState:
		var p model.JoinPayload
		if !s.decode(env, &p) || p.Role == s.role {
			return
		}
		if err := s.publishReady(ctx, false); err != nil && err != model.ErrConfigNotChosen {
			s.logger.Warn("state resend failed", slog.String("error", err.Error()))
		}
	case model.EventReady:
		var p model.ReadyPayload
		if !s.decode(env, &p) || p.Config.Role == s.role {
			return
		}
		s.onOpponentReady(ctx, p)
	case model.EventImpactResult:
		var p model.ImpactResultPayload
		if !s.decode(env, &p) {
			return
		}
		s.onImpactResult(p)
	case model.EventRematchRequest:
		var p model.RematchRequestPayload
		if !s.decode(env, &p) || p.Role == s.role {
			return
		}
		s.onOpponentRematchVote()
	case model.EventParticipantLeft:
		var p model.ParticipantLeftPayload
		if !s.decode(env, &p) || p.Role == s.role {
			return
		}
		s.onOpponentLeft(p)
	case model.EventReaction:
		var p model.ReactionPayload
		if !s.decode(env, &p) || s.isSelf(p.From) {
			return
		}
		if cb := s.callbacks.OnReaction; cb != nil {
			cb(p)
		}
	case model.EventChatMessage:
		var p model.ChatMessagePayload
		if !s.decode(env, &p) || s.isSelf(p.From) {
			return
		}
		if cb := s.callbacks.OnChat; cb != nil {
			cb(p)
		}
	}
}

// onOpponentAnnounce handles a join from the other side. The handshake
// is symmetric: whichever side hears the other announces its own config
// in response, so the exchange converges from any interleaving.
func (s *Session) onOpponentAnnounce(ctx context.Context, cfg *model.ParticipantConfig) {
	if cfg != nil {
		s.recordOpponent(*cfg)
	}
	if err := s.publishReady(ctx, false); err != nil && err != model.ErrConfigNotChosen {
		s.logger.Warn("handshake reply failed", slog.String("error", err.Error()))
	}
}

// onOpponentReady records the opponent's config and answers a non-reply
// ready exactly once with a reply, so the echo terminates
func (s *Session) onOpponentReady(ctx context.Context, p model.ReadyPayload) {
	matched := s.recordOpponent(p.Config)
	if !matched {
		return
	}
	if !p.IsReply {
		if err := s.publishReady(ctx, true); err != nil && err != model.ErrConfigNotChosen {
			s.logger.Warn("handshake reply failed", slog.String("error", err.Error()))
		}
	}
}

// recordOpponent installs the opponent config and reports whether it
// was accepted. A session that already substituted the bot stays with
// the bot; the room is considered taken.
func (s *Session) recordOpponent(cfg model.ParticipantConfig) bool {
	s.mu.Lock()
	if s.matchState == MatchBotSubstituted {
		s.mu.Unlock()
		return false
	}
	fresh := s.opponent == nil || s.opponent.DisplayName != cfg.DisplayName
	s.opponent = &cfg
	s.matchState = MatchMatched
	s.opponentGone = false
	cb := s.callbacks.OnOpponentJoined
	s.mu.Unlock()

	if fresh && cb != nil {
		cb(cfg)
	}
	return true
}

// onImpactResult interprets the authoritative outcome for this side.
// Duplicate broadcasts for the same round are ignored.
func (s *Session) onImpactResult(p model.ImpactResultPayload) {
	s.mu.Lock()
	if s.lastResult != nil && s.lastResult.RoundID == p.RoundID {
		s.mu.Unlock()
		return
	}
	won := p.OwnerWins
	if s.role == model.RoleChallenger {
		won = !p.OwnerWins
	}
	// a winning golden egg is spent whichever side sent the gesture
	if won && s.self != nil && s.self.GoldenEgg {
		s.self.GoldenEgg = false
	}
	res := Result{RoundID: p.RoundID, Won: won, OwnerWins: p.OwnerWins}
	s.lastResult = &res
	s.selfVote = false
	s.opponentVote = false
	s.rematchState = RematchNone
	cb := s.callbacks.OnResult
	s.mu.Unlock()

	if cb != nil {
		cb(res)
	}
}

// onOpponentRematchVote records the other side's vote and completes the
// consensus when ours is already cast
func (s *Session) onOpponentRematchVote() {
	s.mu.Lock()
	if s.lastResult == nil {
		s.mu.Unlock()
		return
	}
	s.opponentVote = true
	agreed := s.selfVote
	if agreed {
		s.resetRoundLocked()
		s.rematchState = RematchAgreed
	}
	cb := s.callbacks.OnRematchAgreed
	s.mu.Unlock()

	if agreed && cb != nil {
		cb()
	}
}

// onOpponentLeft marks the terminal opponent-left state
func (s *Session) onOpponentLeft(p model.ParticipantLeftPayload) {
	s.mu.Lock()
	s.opponentGone = true
	s.rematchState = RematchOpponentLeft
	name := p.DisplayName
	if name == "" && s.opponent != nil {
		name = s.opponent.DisplayName
	}
	cb := s.callbacks.OnOpponentLeft
	s.mu.Unlock()

	if cb != nil {
		cb(name)
	}
}

func (s *Session) isSelf(displayName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self != nil && s.self.DisplayName == displayName
}

func (s *Session) decode(env pubsub.Envelope, into any) bool {
	if err := json.Unmarshal(env.Payload, into); err != nil {
		s.logger.Warn("malformed payload dropped",
			slog.String("event", string(env.Event)),
			slog.String("error", err.Error()))
		return false
	}
	return true
}
