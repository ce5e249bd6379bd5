package model

import "time"

// TeamID identifies a team. The ID doubles as the invite token shared
// via invite links.
type TeamID string

// Team is a longer-lived named collection of participants with a shared
// score ranking and message log. Teams are never explicitly deleted.
type Team struct {
	ID          TeamID    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// RankEntry is one row of a team's descending score snapshot
type RankEntry struct {
	Member string `json:"member"`
	Score  int64  `json:"score"`
}

// TeamMessage is one entry in a team's bounded, time-ordered chat log
type TeamMessage struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// TeamDetails is the consistent paired snapshot read of a team: the
// team record, its member set, the descending ranking and the
// chronological message log, fetched together.
type TeamDetails struct {
	Team     Team          `json:"team"`
	Members  []string      `json:"members"`
	Ranking  []RankEntry   `json:"ranking"`
	Messages []TeamMessage `json:"messages"`
}
