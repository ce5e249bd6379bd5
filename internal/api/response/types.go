package response

import (
	"time"

	"github.com/ciocnim/arena/internal/model"
)

// Clash is the outcome of a clash relay call
type Clash struct {
	RoundID   model.RoundID `json:"round_id"`
	OwnerWins bool          `json:"owner_wins"`
	// Resolved reports whether this call produced the outcome; false
	// means an earlier signal already settled the round
	Resolved bool `json:"resolved"`
}

// Ack acknowledges a fire-and-forget relay
type Ack struct {
	OK bool `json:"ok"`
}

// Counter is the clamped global tally
type Counter struct {
	Total int64 `json:"total"`
}

// Team is a team summary
type Team struct {
	ID          model.TeamID `json:"id"`
	DisplayName string       `json:"display_name"`
	CreatorName string       `json:"creator_name"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TeamFromModel converts a model team
func TeamFromModel(t *model.Team) Team {
	return Team{
		ID:          t.ID,
		DisplayName: t.DisplayName,
		CreatorName: t.CreatorName,
		CreatedAt:   t.CreatedAt,
	}
}

// TeamDetails is the paired snapshot of a team's state
type TeamDetails struct {
	Team     Team                `json:"team"`
	Members  []string            `json:"members"`
	Ranking  []model.RankEntry   `json:"ranking"`
	Messages []model.TeamMessage `json:"messages"`
}

// TeamDetailsFromModel converts a model details snapshot
func TeamDetailsFromModel(d *model.TeamDetails) TeamDetails {
	return TeamDetails{
		Team:     TeamFromModel(&d.Team),
		Members:  d.Members,
		Ranking:  d.Ranking,
		Messages: d.Messages,
	}
}

// TeamMessage is a posted team chat message
type TeamMessage struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Profile is a client profile with the derived veteran badge
type Profile struct {
	Token       model.ProfileToken `json:"token"`
	DisplayName string             `json:"display_name"`
	Wins        int                `json:"wins"`
	Losses      int                `json:"losses"`
	Appearance  model.Appearance   `json:"appearance"`
	GoldenEgg   bool               `json:"golden_egg"`
	Veteran     bool               `json:"veteran"`
	TeamID      model.TeamID       `json:"team_id,omitempty"`
}

// ProfileFromModel converts a model profile
func ProfileFromModel(p *model.Profile) Profile {
	return Profile{
		Token:       p.Token,
		DisplayName: p.DisplayName,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Appearance:  p.Appearance,
		GoldenEgg:   p.GoldenEgg,
		Veteran:     p.Veteran(),
		TeamID:      p.TeamID,
	}
}
