package model

import "time"

// EventType identifies the type of event on a broadcast channel
type EventType string

// Room channel events. These names are part of the wire contract and
// must be used identically on both the publish and subscribe sides.
const (
	EventJoin            EventType = "join"
	EventRequestState    EventType = "request-state"
	EventReady           EventType = "ready"
	EventClashRequested  EventType = "clash-requested"
	EventImpactResult    EventType = "impact-result"
	EventRematchRequest  EventType = "rematch-request"
	EventParticipantLeft EventType = "participant-left"
	EventReaction        EventType = "reaction"
	EventChatMessage     EventType = "chat-message"
)

// Global channel events
const (
	EventCounterUpdated EventType = "counter-updated"
)

// Team channel events
const (
	EventMessagePosted EventType = "message-posted"
	EventScoreUpdated  EventType = "score-updated"
)

// User channel events
const (
	EventDuelRequest EventType = "duel-request"
)

// Channel naming convention, preserved for interop with external
// dashboards and monitoring.

// RoomChannel returns the broadcast channel name for a room
func RoomChannel(id RoomID) string {
	return "room-" + string(id)
}

// TeamChannel returns the broadcast channel name for a team
func TeamChannel(id TeamID) string {
	return "group-" + string(id)
}

// GlobalChannel is the single process-wide channel
const GlobalChannel = "global"

// UserChannel returns the per-user notification channel name
func UserChannel(displayName string) string {
	return "user-" + displayName
}

// JoinPayload announces a participant entering a room, optionally
// carrying its config if already chosen
type JoinPayload struct {
	Role        Role               `json:"role"`
	DisplayName string             `json:"display_name"`
	Config      *ParticipantConfig `json:"config,omitempty"`
}

// ReadyPayload carries one side's full config. IsReply guards the
// symmetric handshake against infinite echo: a ready received with
// IsReply false is answered exactly once with IsReply true.
type ReadyPayload struct {
	Config  ParticipantConfig `json:"config"`
	IsReply bool              `json:"is_reply"`
}

// ClashRequestedPayload is the gesture-detected signal asking the
// authority to resolve the round. The token and team ride along so the
// authority can land side effects without a separate lookup.
type ClashRequestedPayload struct {
	Role         Role         `json:"role"`
	GoldenEgg    bool         `json:"golden_egg"`
	ProfileToken ProfileToken `json:"profile_token,omitempty"`
	TeamID       TeamID       `json:"team_id,omitempty"`
}

// ImpactResultPayload is the single authoritative outcome, expressed
// from the initiator's perspective. Each side derives "did I win" as
// role == initiator ? OwnerWins : !OwnerWins.
type ImpactResultPayload struct {
	RoundID   RoundID `json:"round_id"`
	OwnerWins bool    `json:"owner_wins"`
}

// RematchRequestPayload is one side's explicit opt-in to a rematch
type RematchRequestPayload struct {
	Role Role `json:"role"`
}

// ParticipantLeftPayload signals a deliberate exit from the room
type ParticipantLeftPayload struct {
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
}

// ReactionPayload is an ephemeral emoji; fire-and-forget, no state
// impact
type ReactionPayload struct {
	From  string `json:"from"`
	Emoji string `json:"emoji"`
}

// ChatMessagePayload is an in-room chat line
type ChatMessagePayload struct {
	From   string    `json:"from"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// CounterUpdatedPayload carries the clamped global tally
type CounterUpdatedPayload struct {
	Total int64 `json:"total"`
}

// MessagePostedPayload is a persisted team chat message
type MessagePostedPayload struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// ScoreUpdatedPayload carries a team's full descending ranking snapshot
type ScoreUpdatedPayload struct {
	TeamID  TeamID      `json:"team_id"`
	Ranking []RankEntry `json:"ranking"`
}

// DuelRequestPayload invites a named user into a room
type DuelRequestPayload struct {
	From   string `json:"from"`
	RoomID RoomID `json:"room_id"`
	TeamID TeamID `json:"team_id,omitempty"`
}
