package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Profile:
		o.printProfile(v)
	case Team:
		o.printTeam(v)
	case TeamDetails:
		o.printTeamDetails(v)
	case TeamMessage:
		o.printTeamMessage(v)
	case ClashResult:
		o.printClashResult(v)
	case Counter:
		o.printCounter(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		o.printJSON(data)
	}
}

// Profile response type (matches API)
type Profile struct {
	Token       string     `json:"token"`
	DisplayName string     `json:"display_name"`
	Wins        int        `json:"wins"`
	Losses      int        `json:"losses"`
	Appearance  Appearance `json:"appearance"`
	GoldenEgg   bool       `json:"golden_egg"`
	Veteran     bool       `json:"veteran"`
	TeamID      string     `json:"team_id,omitempty"`
}

// Appearance response type
type Appearance struct {
	Skin    string `json:"skin"`
	Pattern string `json:"pattern,omitempty"`
}

// Team response type
type Team struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// TeamDetails response type
type TeamDetails struct {
	Team     Team          `json:"team"`
	Members  []string      `json:"members"`
	Ranking  []RankEntry   `json:"ranking"`
	Messages []TeamMessage `json:"messages"`
}

// RankEntry response type
type RankEntry struct {
	Member string `json:"member"`
	Score  int64  `json:"score"`
}

// TeamMessage response type
type TeamMessage struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// ClashResult response type
type ClashResult struct {
	RoundID   string `json:"round_id"`
	OwnerWins bool   `json:"owner_wins"`
	Resolved  bool   `json:"resolved"`
}

// Counter response type
type Counter struct {
	Total int64 `json:"total"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("Profile: %s (%s)\n", p.DisplayName, p.Token)
	fmt.Printf("Record: %d wins / %d losses\n", p.Wins, p.Losses)
	fmt.Printf("Egg: %s", p.Appearance.Skin)
	if p.Appearance.Pattern != "" {
		fmt.Printf(" (%s)", p.Appearance.Pattern)
	}
	fmt.Println()
	if p.GoldenEgg {
		fmt.Println("Golden egg: held")
	}
	if p.Veteran {
		fmt.Println("Veteran: yes")
	}
	if p.TeamID != "" {
		fmt.Printf("Team: %s\n", p.TeamID)
	}
}

func (o *Output) printTeam(t Team) {
	fmt.Printf("Team: %s (%s)\n", t.DisplayName, t.ID)
	fmt.Printf("Creator: %s\n", t.CreatorName)
}

func (o *Output) printTeamDetails(d TeamDetails) {
	o.printTeam(d.Team)
	fmt.Printf("Members (%d):\n", len(d.Members))
	for _, m := range d.Members {
		fmt.Printf("  - %s\n", m)
	}
	if len(d.Ranking) > 0 {
		fmt.Println("Ranking:")
		for i, e := range d.Ranking {
			fmt.Printf("  %d. %s - %d\n", i+1, e.Member, e.Score)
		}
	}
	if len(d.Messages) > 0 {
		fmt.Println("Messages:")
		for _, m := range d.Messages {
			o.printTeamMessage(m)
		}
	}
}

func (o *Output) printTeamMessage(m TeamMessage) {
	fmt.Printf("  [%s] %s: %s\n", m.SentAt.Format(time.Kitchen), m.Author, m.Text)
}

func (o *Output) printClashResult(c ClashResult) {
	winner := "challenger"
	if c.OwnerWins {
		winner = "initiator"
	}
	fmt.Printf("Round: %s\n", c.RoundID)
	fmt.Printf("Winner: %s\n", winner)
	if !c.Resolved {
		fmt.Println("(already resolved by an earlier signal)")
	}
}

func (o *Output) printCounter(c Counter) {
	fmt.Printf("Rounds resolved: %d\n", c.Total)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
