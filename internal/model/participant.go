package model

// Role distinguishes the two process-level sides of a 1:1 room.
// It is used only to interpret the shared round outcome from each
// side's perspective and carries no inherent advantage.
type Role string

const (
	RoleInitiator  Role = "initiator"
	RoleChallenger Role = "challenger"
)

// Opposite returns the other role in a 1:1 room
func (r Role) Opposite() Role {
	if r == RoleInitiator {
		return RoleChallenger
	}
	return RoleInitiator
}

// Valid reports whether the role is one of the two known roles
func (r Role) Valid() bool {
	return r == RoleInitiator || r == RoleChallenger
}

// Skin is a cosmetic egg appearance tag
type Skin string

const (
	SkinRed     Skin = "red"
	SkinBlue    Skin = "blue"
	SkinGold    Skin = "gold"
	SkinDiamond Skin = "diamond"
	SkinCosmic  Skin = "cosmic"
)

// Appearance is the purely cosmetic egg configuration carried through
// every handshake message
type Appearance struct {
	Skin    Skin   `json:"skin"`
	Pattern string `json:"pattern,omitempty"`
}

// ParticipantConfig is one side's full configuration as exchanged during
// the room handshake. ProfileToken and TeamID identify the participant
// to the resolution authority so win/loss and team score land on the
// right records; anonymous participants leave both empty.
type ParticipantConfig struct {
	DisplayName  string       `json:"display_name"`
	Role         Role         `json:"role"`
	Appearance   Appearance   `json:"appearance"`
	GoldenEgg    bool         `json:"golden_egg"`
	Veteran      bool         `json:"veteran"`
	ProfileToken ProfileToken `json:"profile_token,omitempty"`
	TeamID       TeamID       `json:"team_id,omitempty"`
}

// VeteranWinThreshold is the lifetime win count at which the veteran
// badge is shown
const VeteranWinThreshold = 10

// BotDisplayName is the fixed label for the synthetic opponent
// substituted by the fallback matchmaker
const BotDisplayName = "BOT_CIOCNITOR"

// BotConfig returns the synthetic opponent used when no human joins in
// time. The bot never holds a golden egg; the veteran star is a
// cosmetic flourish.
func BotConfig(role Role) ParticipantConfig {
	return ParticipantConfig{
		DisplayName: BotDisplayName,
		Role:        role,
		Appearance:  Appearance{Skin: SkinCosmic, Pattern: "stars"},
		GoldenEgg:   false,
		Veteran:     true,
	}
}
