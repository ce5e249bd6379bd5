package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ciocnim/arena/internal/dependencies/mocks"
	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/services/clash"
	"github.com/ciocnim/arena/internal/services/counter"
	"github.com/ciocnim/arena/internal/services/profile"
	"github.com/ciocnim/arena/internal/services/team"
	"github.com/ciocnim/arena/internal/storage/memory"
	"github.com/ciocnim/arena/internal/testutil"
)

const testRoom = model.RoomID("room-test")

type SessionSuite struct {
	suite.Suite
	broker *pubsub.MemoryBroker
	clock  *mocks.MockClock
	random *mocks.MockRandom
	engine *clash.Engine
	ctx    context.Context
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	logger := testutil.NopLogger()
	store := memory.New()
	s.broker = pubsub.NewMemoryBroker(logger)
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	counterService := counter.New(store, s.broker, logger)
	teamService := team.New(store, s.broker, s.clock, 0, logger)
	profileService := profile.New(store, s.clock, s.random, profile.DefaultGrantConfig(), logger)
	s.engine = clash.NewEngine(store, s.broker, counterService, teamService, profileService, s.clock, s.random, logger)
	s.ctx = context.Background()
}

// bridgeEngine routes room traffic into the resolution engine the way
// the gateway does in production: ready and rematch votes are
// registered, clash gestures resolve, everything else passes through
func (s *SessionSuite) bridgeEngine(roomID model.RoomID) {
	_, err := s.broker.Subscribe(s.ctx, model.RoomChannel(roomID), func(env pubsub.Envelope) {
		switch env.Event {
		case model.EventReady:
			var p model.ReadyPayload
			s.Require().NoError(json.Unmarshal(env.Payload, &p))
			s.Require().NoError(s.engine.RegisterReady(s.ctx, roomID, p.Config))
		case model.EventRematchRequest:
			var p model.RematchRequestPayload
			s.Require().NoError(json.Unmarshal(env.Payload, &p))
			s.Require().NoError(s.engine.RegisterRematchVote(s.ctx, roomID, p.Role))
		case model.EventClashRequested:
			var p model.ClashRequestedPayload
			s.Require().NoError(json.Unmarshal(env.Payload, &p))
			_, _, _ = s.engine.Resolve(s.ctx, clash.Request{
				RoomID:    roomID,
				Role:      p.Role,
				GoldenEgg: p.GoldenEgg,
			})
		}
	})
	s.Require().NoError(err)
}

func (s *SessionSuite) newSession(role model.Role, cb Callbacks) *Session {
	return New(s.broker, s.clock, s.random, testRoom, role, cb, testutil.NopLogger())
}

// captureReadies records every ready broadcast by the given role
func (s *SessionSuite) captureReadies(role model.Role) *[]model.ReadyPayload {
	var readies []model.ReadyPayload
	_, err := s.broker.Subscribe(s.ctx, model.RoomChannel(testRoom), func(env pubsub.Envelope) {
		if env.Event != model.EventReady {
			return
		}
		var p model.ReadyPayload
		s.Require().NoError(json.Unmarshal(env.Payload, &p))
		if p.Config.Role == role {
			readies = append(readies, p)
		}
	})
	s.Require().NoError(err)
	return &readies
}

func (s *SessionSuite) config(name string, role model.Role) model.ParticipantConfig {
	return model.ParticipantConfig{
		DisplayName: name,
		Role:        role,
		Appearance:  model.Appearance{Skin: model.SkinBlue},
	}
}

// Handshake convergence

func (s *SessionSuite) TestHandshake_SequentialJoin() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	b := s.newSession(model.RoleChallenger, Callbacks{})

	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.Require().NoError(b.Join(s.ctx))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))

	s.Equal(MatchMatched, a.State().MatchState)
	s.Equal(MatchMatched, b.State().MatchState)
	s.Require().NotNil(a.State().Opponent)
	s.Require().NotNil(b.State().Opponent)
	s.Equal("bogdan", a.State().Opponent.DisplayName)
	s.Equal("ana", b.State().Opponent.DisplayName)
}

func (s *SessionSuite) TestHandshake_BothJoinBeforeChoosing() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	b := s.newSession(model.RoleChallenger, Callbacks{})

	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(b.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))

	s.Equal(MatchMatched, a.State().MatchState)
	s.Equal(MatchMatched, b.State().MatchState)
	s.Equal("bogdan", a.State().Opponent.DisplayName)
	s.Equal("ana", b.State().Opponent.DisplayName)
}

func (s *SessionSuite) TestHandshake_ConfigChosenBeforeJoin() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	b := s.newSession(model.RoleChallenger, Callbacks{})

	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(b.Join(s.ctx))

	s.Equal(MatchMatched, a.State().MatchState)
	s.Equal(MatchMatched, b.State().MatchState)
	s.Equal("bogdan", a.State().Opponent.DisplayName)
	s.Equal("ana", b.State().Opponent.DisplayName)
}

func (s *SessionSuite) TestHandshake_DuplicateReadyIsIdempotent() {
	var joins int
	a := s.newSession(model.RoleInitiator, Callbacks{
		OnOpponentJoined: func(model.ParticipantConfig) { joins++ },
	})
	b := s.newSession(model.RoleChallenger, Callbacks{})

	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.Require().NoError(b.Join(s.ctx))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))

	// a stale state request triggers a resend; the opponent must not be
	// reported as newly joined again
	s.Require().NoError(a.RequestState(s.ctx))

	s.Equal(1, joins)
	s.Equal(MatchMatched, a.State().MatchState)
}

func (s *SessionSuite) TestHandshake_IgnoresOwnRole() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))

	// a malformed duplicate claiming our own role must never match us
	// with ourselves
	s.Require().NoError(s.broker.Publish(s.ctx, model.RoomChannel(testRoom), model.EventReady,
		model.ReadyPayload{Config: s.config("impostor", model.RoleInitiator)}))

	s.Equal(MatchWaiting, a.State().MatchState)
	s.Nil(a.State().Opponent)
}

// Fallback matchmaker

func (s *SessionSuite) TestMatchmaker_SubstitutesBotAfterTimeout() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))

	a.StartSearch(s.clock.Now())

	for i := 0; i < 5; i++ {
		s.clock.Advance(time.Second)
		s.False(a.Tick(s.clock.Now()))
	}
	s.clock.Advance(time.Second)
	s.True(a.Tick(s.clock.Now()))

	snap := a.State()
	s.Equal(MatchBotSubstituted, snap.MatchState)
	s.Require().NotNil(snap.Opponent)
	s.Equal(model.BotDisplayName, snap.Opponent.DisplayName)
	s.True(snap.Opponent.Veteran)
	s.False(snap.Opponent.GoldenEgg)
}

func (s *SessionSuite) TestMatchmaker_CancelledByHandshake() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	b := s.newSession(model.RoleChallenger, Callbacks{})

	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	a.StartSearch(s.clock.Now())

	// the opponent arrives after the deadline but before the next tick;
	// the human still wins the race because substitution only happens
	// inside Tick
	s.clock.Advance(SearchTimeout + time.Millisecond)
	s.Require().NoError(b.Join(s.ctx))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))

	s.False(a.Tick(s.clock.Now()))
	s.Equal(MatchMatched, a.State().MatchState)
	s.Equal("bogdan", a.State().Opponent.DisplayName)
}

func (s *SessionSuite) TestMatchmaker_NeverReentersWaiting() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))

	a.StartSearch(s.clock.Now())
	s.clock.Advance(SearchTimeout)
	s.Require().True(a.Tick(s.clock.Now()))

	// late human ready does not displace the bot
	b := s.newSession(model.RoleChallenger, Callbacks{})
	s.Require().NoError(b.Join(s.ctx))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))

	s.Equal(MatchBotSubstituted, a.State().MatchState)
	s.Equal(model.BotDisplayName, a.State().Opponent.DisplayName)

	// and a renewed search is a no-op
	a.StartSearch(s.clock.Now())
	s.Equal(MatchBotSubstituted, a.State().MatchState)
}

func (s *SessionSuite) TestMatchmaker_ConfigurableTimeout() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	a.SetSearchTimeout(2 * time.Second)
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))

	a.StartSearch(s.clock.Now())
	s.clock.Advance(time.Second)
	s.False(a.Tick(s.clock.Now()))
	s.clock.Advance(time.Second)
	s.True(a.Tick(s.clock.Now()))
}

// Bot rounds

func (s *SessionSuite) TestBotClash_ResolvesLocally() {
	clashSignals := 0
	_, err := s.broker.Subscribe(s.ctx, model.RoomChannel(testRoom), func(env pubsub.Envelope) {
		if env.Event == model.EventClashRequested {
			clashSignals++
		}
	})
	s.Require().NoError(err)

	a := s.newSession(model.RoleInitiator, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	a.StartSearch(s.clock.Now())
	s.clock.Advance(SearchTimeout)
	s.Require().True(a.Tick(s.clock.Now()))

	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))

	snap := a.State()
	s.Require().NotNil(snap.LastResult)
	s.True(snap.LastResult.Won)
	s.True(snap.LastResult.ViaBot)
	s.Equal(0, clashSignals)
}

func (s *SessionSuite) TestBotClash_GoldenAlwaysWins() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	cfg := s.config("ana", model.RoleInitiator)
	cfg.GoldenEgg = true
	s.Require().NoError(a.ChooseConfig(s.ctx, cfg))
	a.StartSearch(s.clock.Now())
	s.clock.Advance(SearchTimeout)
	s.Require().True(a.Tick(s.clock.Now()))

	// no coin queued: a flip would lose
	s.Require().NoError(a.RequestClash(s.ctx))

	snap := a.State()
	s.Require().NotNil(snap.LastResult)
	s.True(snap.LastResult.Won)
}

func (s *SessionSuite) TestBotRematch_ImmediateConsent() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	a.StartSearch(s.clock.Now())
	s.clock.Advance(SearchTimeout)
	s.Require().True(a.Tick(s.clock.Now()))

	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))
	s.Require().NoError(a.RequestRematch(s.ctx))

	snap := a.State()
	s.Equal(RematchAgreed, snap.RematchState)
	s.Nil(snap.LastResult)
	s.Require().NotNil(snap.Opponent)
	s.Equal(model.BotDisplayName, snap.Opponent.DisplayName)

	// re-selection, then the next bot round resolves
	s.ErrorIs(a.RequestClash(s.ctx), model.ErrConfigNotChosen)
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))
	s.True(a.State().LastResult.Won)
}

// Full human round through the engine

func (s *SessionSuite) matchedPair() (*Session, *Session) {
	s.bridgeEngine(testRoom)
	a := s.newSession(model.RoleInitiator, Callbacks{})
	b := s.newSession(model.RoleChallenger, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.Require().NoError(b.Join(s.ctx))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))
	s.Require().Equal(MatchMatched, a.State().MatchState)
	s.Require().Equal(MatchMatched, b.State().MatchState)
	return a, b
}

func (s *SessionSuite) TestHumanRound_BothSidesSeeTheSameOutcome() {
	a, b := s.matchedPair()

	s.random.QueueIntn(1) // initiator wins the flip
	s.Require().NoError(a.RequestClash(s.ctx))

	aRes := a.State().LastResult
	bRes := b.State().LastResult
	s.Require().NotNil(aRes)
	s.Require().NotNil(bRes)
	s.Equal(aRes.RoundID, bRes.RoundID)
	s.True(aRes.Won)
	s.False(bRes.Won)
	s.True(aRes.OwnerWins)
	s.True(bRes.OwnerWins)
}

func (s *SessionSuite) TestHumanRound_SimultaneousGesturesSingleResult() {
	a, b := s.matchedPair()

	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))
	// b's gesture lands after the result; the engine ignores it and the
	// session keeps its first outcome
	err := b.RequestClash(s.ctx)
	s.ErrorIs(err, model.ErrAlreadyResolved)

	s.Equal(a.State().LastResult.RoundID, b.State().LastResult.RoundID)
}

func (s *SessionSuite) TestHumanRound_GoldenConsumedOnWin() {
	s.bridgeEngine(testRoom)
	a := s.newSession(model.RoleInitiator, Callbacks{})
	b := s.newSession(model.RoleChallenger, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	cfg := s.config("ana", model.RoleInitiator)
	cfg.GoldenEgg = true
	s.Require().NoError(a.ChooseConfig(s.ctx, cfg))
	s.Require().NoError(b.Join(s.ctx))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))

	s.Require().NoError(a.RequestClash(s.ctx))

	s.True(a.State().LastResult.Won)
	// the flag is spent: a state resend no longer carries it
	readies := s.captureReadies(model.RoleInitiator)
	s.Require().NoError(b.RequestState(s.ctx))
	s.Require().NotEmpty(*readies)
	s.False((*readies)[len(*readies)-1].Config.GoldenEgg)
}

func (s *SessionSuite) TestHumanRound_GoldenSpentByNonGesturingWinner() {
	s.bridgeEngine(testRoom)
	a := s.newSession(model.RoleInitiator, Callbacks{})
	b := s.newSession(model.RoleChallenger, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.Require().NoError(b.Join(s.ctx))
	cfg := s.config("bogdan", model.RoleChallenger)
	cfg.GoldenEgg = true
	s.Require().NoError(b.ChooseConfig(s.ctx, cfg))

	// a gestures; b's golden egg decides the round against the
	// gesturing side
	s.Require().NoError(a.RequestClash(s.ctx))
	s.False(a.State().LastResult.Won)
	s.True(b.State().LastResult.Won)

	// b's token is spent even though a sent the gesture
	readies := s.captureReadies(model.RoleChallenger)
	s.Require().NoError(a.RequestState(s.ctx))
	s.Require().NotEmpty(*readies)
	s.False((*readies)[len(*readies)-1].Config.GoldenEgg)

	// after an agreed rematch and re-selection the coin decides again
	s.Require().NoError(a.RequestRematch(s.ctx))
	s.Require().NoError(b.RequestRematch(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))
	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))
	s.True(a.State().LastResult.Won)
}

// Rematch consensus

func (s *SessionSuite) TestRematch_SingleVoteAwaitsOpponent() {
	a, _ := s.matchedPair()
	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))

	s.Require().NoError(a.RequestRematch(s.ctx))

	s.Equal(RematchAwaitingOpponent, a.State().RematchState)
	s.NotNil(a.State().LastResult)
}

func (s *SessionSuite) TestRematch_BothVotesReset() {
	a, b := s.matchedPair()
	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))

	var aAgreed, bAgreed bool
	a.callbacks.OnRematchAgreed = func() { aAgreed = true }
	b.callbacks.OnRematchAgreed = func() { bAgreed = true }

	s.Require().NoError(a.RequestRematch(s.ctx))
	s.Require().NoError(b.RequestRematch(s.ctx))

	s.Equal(RematchAgreed, a.State().RematchState)
	s.Equal(RematchAgreed, b.State().RematchState)
	s.Nil(a.State().LastResult)
	s.Nil(b.State().LastResult)
	s.True(aAgreed)
	s.True(bAgreed)

	// a fresh round resolves once both sides re-select
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))
	s.Require().NoError(b.ChooseConfig(s.ctx, s.config("bogdan", model.RoleChallenger)))
	s.random.QueueIntn(0)
	s.Require().NoError(a.RequestClash(s.ctx))
	s.Require().NotNil(a.State().LastResult)
	s.False(a.State().LastResult.Won)
}

func (s *SessionSuite) TestRematch_ForcesConfigReselection() {
	a, b := s.matchedPair()
	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))

	s.Require().NoError(a.RequestRematch(s.ctx))
	s.Require().NoError(b.RequestRematch(s.ctx))

	// both chosen configs are cleared on consensus; a clash before
	// re-selection is rejected
	s.ErrorIs(a.RequestClash(s.ctx), model.ErrConfigNotChosen)
	s.ErrorIs(b.RequestClash(s.ctx), model.ErrConfigNotChosen)
}

func (s *SessionSuite) TestRematch_RequiresResult() {
	a, _ := s.matchedPair()
	s.ErrorIs(a.RequestRematch(s.ctx), model.ErrNoResult)
}

// Departure

func (s *SessionSuite) TestLeave_OpponentSeesTerminalState() {
	a, b := s.matchedPair()
	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))

	var leftName string
	a.callbacks.OnOpponentLeft = func(name string) { leftName = name }

	s.Require().NoError(b.Leave(s.ctx))

	snap := a.State()
	s.True(snap.OpponentLeft)
	s.Equal(RematchOpponentLeft, snap.RematchState)
	s.Equal("bogdan", leftName)

	// terminal: opponentLeft is not "awaiting a vote", and rematch or
	// clash attempts fail outright
	s.ErrorIs(a.RequestRematch(s.ctx), model.ErrOpponentLeft)
}

func (s *SessionSuite) TestLeave_DistinctFromAwaitingVote() {
	a, b := s.matchedPair()
	s.random.QueueIntn(1)
	s.Require().NoError(a.RequestClash(s.ctx))

	s.Require().NoError(a.RequestRematch(s.ctx))
	s.Equal(RematchAwaitingOpponent, a.State().RematchState)

	s.Require().NoError(b.Leave(s.ctx))
	s.Equal(RematchOpponentLeft, a.State().RematchState)
}

// Relay-only events

func (s *SessionSuite) TestReactionAndChat_RelayedToOpponentOnly() {
	a, b := s.matchedPair()

	var aReactions, bReactions []model.ReactionPayload
	var bChats []model.ChatMessagePayload
	a.callbacks.OnReaction = func(p model.ReactionPayload) { aReactions = append(aReactions, p) }
	b.callbacks.OnReaction = func(p model.ReactionPayload) { bReactions = append(bReactions, p) }
	b.callbacks.OnChat = func(p model.ChatMessagePayload) { bChats = append(bChats, p) }

	s.Require().NoError(a.SendReaction(s.ctx, "🥚"))
	s.Require().NoError(a.SendChat(s.ctx, "pregateste-te"))

	s.Empty(aReactions)
	s.Require().Len(bReactions, 1)
	s.Equal("🥚", bReactions[0].Emoji)
	s.Require().Len(bChats, 1)
	s.Equal("pregateste-te", bChats[0].Text)
}

func (s *SessionSuite) TestClash_RequiresOpponent() {
	a := s.newSession(model.RoleInitiator, Callbacks{})
	s.Require().NoError(a.Join(s.ctx))
	s.Require().NoError(a.ChooseConfig(s.ctx, s.config("ana", model.RoleInitiator)))

	s.ErrorIs(a.RequestClash(s.ctx), model.ErrNoOpponent)
}
