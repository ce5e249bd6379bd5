package model

import "time"

// RoomID is the opaque token identifying an ephemeral room. Rooms exist
// only as a broadcast channel plus a transient server-side record used
// to keep round resolution idempotent.
type RoomID string

// RoundID uniquely identifies one clash attempt within a room
type RoundID string

// Round is one clash attempt. At most one outcome is computed and
// honored per round; duplicate impact signals after a result exists are
// ignored.
type Round struct {
	ID         RoundID   `json:"id"`
	Resolved   bool      `json:"resolved"`
	OwnerWins  bool      `json:"owner_wins"` // from the initiator's perspective
	ResolvedAt time.Time `json:"resolved_at"`
}

// Room is the transient coordination record for a 1:1 (or 1:bot)
// session. There is no explicit deletion; the store expires it.
type Room struct {
	ID           RoomID                     `json:"id"`
	TeamID       TeamID                     `json:"team_id,omitempty"`
	Participants map[Role]ParticipantConfig `json:"participants"`
	Round        *Round                     `json:"round,omitempty"`
	RematchVotes map[Role]bool              `json:"rematch_votes"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// NewRoom creates an empty room record
func NewRoom(id RoomID, now time.Time) *Room {
	return &Room{
		ID:           id,
		Participants: make(map[Role]ParticipantConfig),
		RematchVotes: make(map[Role]bool),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Participant returns the registered config for a role, if any
func (r *Room) Participant(role Role) (ParticipantConfig, bool) {
	cfg, ok := r.Participants[role]
	return cfg, ok
}

// HasResult reports whether the current round already has an
// authoritative outcome
func (r *Room) HasResult() bool {
	return r.Round != nil && r.Round.Resolved
}

// BothWantRematch reports whether both sides have voted for a rematch
func (r *Room) BothWantRematch() bool {
	return r.RematchVotes[RoleInitiator] && r.RematchVotes[RoleChallenger]
}

// ResetForRematch clears the round result, both registered configs and
// the rematch votes, returning the room to the pre-round state
func (r *Room) ResetForRematch(now time.Time) {
	r.Round = nil
	r.Participants = make(map[Role]ParticipantConfig)
	r.RematchVotes = make(map[Role]bool)
	r.UpdatedAt = now
}
