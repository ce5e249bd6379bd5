package request

import (
	"encoding/json"

	"github.com/ciocnim/arena/internal/model"
)

// ClashRequest relays an impact gesture to the resolution authority
type ClashRequest struct {
	Role         string `json:"role"`
	GoldenEgg    bool   `json:"golden_egg"`
	ProfileToken string `json:"profile_token,omitempty"`
	TeamID       string `json:"team_id,omitempty"`
}

// RelayEventRequest is a typed room event for the relay endpoint.
// Unknown event types are acknowledged without action.
type RelayEventRequest struct {
	Event   model.EventType `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// CreateTeamRequest creates a team on behalf of a creator
type CreateTeamRequest struct {
	CreatorName string `json:"creator_name"`
	TeamName    string `json:"team_name,omitempty"`
}

// JoinTeamRequest joins a team using its id as the invite token
type JoinTeamRequest struct {
	DisplayName string `json:"display_name"`
}

// PostTeamMessageRequest posts a message to the team's bounded log
type PostTeamMessageRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// DuelInviteRequest invites a named user into a room
type DuelInviteRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	RoomID string `json:"room_id"`
	TeamID string `json:"team_id,omitempty"`
}

// CreateProfileRequest bootstraps a client profile
type CreateProfileRequest struct {
	DisplayName string           `json:"display_name"`
	Appearance  model.Appearance `json:"appearance"`
}
