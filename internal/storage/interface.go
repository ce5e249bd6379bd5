package storage

import (
	"context"

	"github.com/ciocnim/arena/internal/model"
)

// Storage defines the interface for data persistence.
//
// All shared mutable state (the global counter and team score lists) is
// mutated only through atomic single-key operations; callers never
// compute a new value and write it back.
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error

	// Global counter operations. Increment and Get return the raw
	// stored value; floor clamping is the counter service's concern.
	IncrementResolvedRounds(ctx context.Context) (int64, error)
	GetResolvedRounds(ctx context.Context) (int64, error)
	SetResolvedRounds(ctx context.Context, value int64) error

	// Team operations
	SaveTeam(ctx context.Context, team *model.Team) error
	GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error)
	AddTeamMember(ctx context.Context, id model.TeamID, member string) error
	ListTeamMembers(ctx context.Context, id model.TeamID) ([]string, error)

	// Ranked score list. IncrementTeamScore with delta 0 creates the
	// member's entry at score 0. ReadTeamRanking returns a full
	// descending snapshot.
	IncrementTeamScore(ctx context.Context, id model.TeamID, member string, delta int64) (int64, error)
	ReadTeamRanking(ctx context.Context, id model.TeamID) ([]model.RankEntry, error)

	// Bounded message log. Messages are kept newest-first internally;
	// ReadTeamMessages returns the bounded window in chronological order.
	AppendTeamMessage(ctx context.Context, id model.TeamID, msg model.TeamMessage, bound int) error
	ReadTeamMessages(ctx context.Context, id model.TeamID, bound int) ([]model.TeamMessage, error)

	// Profile operations
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, token model.ProfileToken) (*model.Profile, error)
}
