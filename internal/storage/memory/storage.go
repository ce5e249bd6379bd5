package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms          map[model.RoomID]*model.Room
	resolvedRounds int64
	teams          map[model.TeamID]*model.Team
	teamMembers    map[model.TeamID][]string
	teamScores     map[model.TeamID]map[string]int64
	scoreOrder     map[model.TeamID][]string // insertion order, used as the ranking tie-break
	teamLogs       map[model.TeamID][]model.TeamMessage
	profiles       map[model.ProfileToken]*model.Profile
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:       make(map[model.RoomID]*model.Room),
		teams:       make(map[model.TeamID]*model.Team),
		teamMembers: make(map[model.TeamID][]string),
		teamScores:  make(map[model.TeamID]map[string]int64),
		scoreOrder:  make(map[model.TeamID][]string),
		teamLogs:    make(map[model.TeamID][]model.TeamMessage),
		profiles:    make(map[model.ProfileToken]*model.Profile),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

// Global counter operations

func (s *Storage) IncrementResolvedRounds(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvedRounds++
	return s.resolvedRounds, nil
}

func (s *Storage) GetResolvedRounds(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolvedRounds, nil
}

func (s *Storage) SetResolvedRounds(ctx context.Context, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvedRounds = value
	return nil
}

// Team operations

func (s *Storage) SaveTeam(ctx context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[team.ID] = team
	return nil
}

func (s *Storage) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[id]
	if !ok {
		return nil, model.ErrTeamNotFound
	}
	return team, nil
}

func (s *Storage) AddTeamMember(ctx context.Context, id model.TeamID, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.teamMembers[id] {
		if m == member {
			return nil
		}
	}
	s.teamMembers[id] = append(s.teamMembers[id], member)
	return nil
}

func (s *Storage) ListTeamMembers(ctx context.Context, id model.TeamID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]string, len(s.teamMembers[id]))
	copy(members, s.teamMembers[id])
	return members, nil
}

func (s *Storage) IncrementTeamScore(ctx context.Context, id model.TeamID, member string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scores, ok := s.teamScores[id]
	if !ok {
		scores = make(map[string]int64)
		s.teamScores[id] = scores
	}
	if _, seen := scores[member]; !seen {
		s.scoreOrder[id] = append(s.scoreOrder[id], member)
	}
	scores[member] += delta
	return scores[member], nil
}

// ReadTeamRanking returns members by descending score. Ties break by
// insertion order, i.e. whoever entered the score list first ranks
// higher. The Redis backend breaks ties lexically instead; see
// internal/storage/redis.
func (s *Storage) ReadTeamRanking(ctx context.Context, id model.TeamID) ([]model.RankEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := s.scoreOrder[id]
	scores := s.teamScores[id]

	entries := make([]model.RankEntry, 0, len(order))
	for _, member := range order {
		entries = append(entries, model.RankEntry{Member: member, Score: scores[member]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries, nil
}

func (s *Storage) AppendTeamMessage(ctx context.Context, id model.TeamID, msg model.TeamMessage, bound int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Newest-first, like LPUSH
	log := append([]model.TeamMessage{msg}, s.teamLogs[id]...)
	if len(log) > bound {
		log = log[:bound]
	}
	s.teamLogs[id] = log
	return nil
}

func (s *Storage) ReadTeamMessages(ctx context.Context, id model.TeamID, bound int) ([]model.TeamMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.teamLogs[id]
	if len(log) > bound {
		log = log[:bound]
	}
	// Reverse into chronological order for callers
	out := make([]model.TeamMessage, len(log))
	for i, msg := range log {
		out[len(log)-1-i] = msg
	}
	return out, nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Token] = profile
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, token model.ProfileToken) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[token]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return profile, nil
}
