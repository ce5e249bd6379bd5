package model

import "time"

// ProfileToken is the opaque per-client token identifying a persistent
// profile. It is the server-side equivalent of the browser-local stats
// blob: whoever holds the token owns the profile.
type ProfileToken string

// Profile is a client's persistent identity and lifetime stats. Created
// on first visit, mutated after every round and by the periodic golden
// egg roll, never explicitly destroyed.
type Profile struct {
	Token          ProfileToken `json:"token"`
	DisplayName    string       `json:"display_name"`
	Wins           int          `json:"wins"`
	Losses         int          `json:"losses"`
	Appearance     Appearance   `json:"appearance"`
	GoldenEgg      bool         `json:"golden_egg"`
	LastGoldenRoll time.Time    `json:"last_golden_roll"`
	TeamID         TeamID       `json:"team_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Veteran reports whether the lifetime win count has crossed the badge
// threshold
func (p *Profile) Veteran() bool {
	return p.Wins >= VeteranWinThreshold
}

// Config builds the participant config this profile brings into a room
func (p *Profile) Config(role Role) ParticipantConfig {
	return ParticipantConfig{
		DisplayName: p.DisplayName,
		Role:        role,
		Appearance:  p.Appearance,
		GoldenEgg:   p.GoldenEgg,
		Veteran:     p.Veteran(),
	}
}
