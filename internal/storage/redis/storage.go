package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ciocnim/arena/internal/model"
	"github.com/ciocnim/arena/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Client exposes the underlying connection so the pub/sub broker can
// share it
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL).Err()
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	return s.client.Del(ctx, roomKey(id)).Err()
}

// Global counter operations

func (s *Storage) IncrementResolvedRounds(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, resolvedRoundsKey()).Result()
}

func (s *Storage) GetResolvedRounds(ctx context.Context) (int64, error) {
	value, err := s.client.Get(ctx, resolvedRoundsKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return value, nil
}

func (s *Storage) SetResolvedRounds(ctx context.Context, value int64) error {
	return s.client.Set(ctx, resolvedRoundsKey(), value, 0).Err()
}

// Team operations

func (s *Storage) SaveTeam(ctx context.Context, team *model.Team) error {
	data, err := json.Marshal(team)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, teamKey(team.ID), data, 0).Err()
}

func (s *Storage) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	data, err := s.client.Get(ctx, teamKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTeamNotFound
		}
		return nil, err
	}

	var team model.Team
	if err := json.Unmarshal(data, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *Storage) AddTeamMember(ctx context.Context, id model.TeamID, member string) error {
	return s.client.SAdd(ctx, teamMembersKey(id), member).Err()
}

func (s *Storage) ListTeamMembers(ctx context.Context, id model.TeamID) ([]string, error) {
	return s.client.SMembers(ctx, teamMembersKey(id)).Result()
}

func (s *Storage) IncrementTeamScore(ctx context.Context, id model.TeamID, member string, delta int64) (int64, error) {
	score, err := s.client.ZIncrBy(ctx, teamRankingKey(id), float64(delta), member).Result()
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}

// ReadTeamRanking returns members by descending score. Redis breaks
// score ties by reverse lexical member order; the memory backend breaks
// them by insertion order instead.
func (s *Storage) ReadTeamRanking(ctx context.Context, id model.TeamID) ([]model.RankEntry, error) {
	rows, err := s.client.ZRevRangeWithScores(ctx, teamRankingKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.RankEntry, 0, len(rows))
	for _, row := range rows {
		member, ok := row.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, model.RankEntry{Member: member, Score: int64(row.Score)})
	}
	return entries, nil
}

func (s *Storage) AppendTeamMessage(ctx context.Context, id model.TeamID, msg model.TeamMessage, bound int) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// Newest-first list, trimmed to the bound in the same pipeline
	key := teamLogKey(id)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(bound)-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ReadTeamMessages(ctx context.Context, id model.TeamID, bound int) ([]model.TeamMessage, error) {
	rows, err := s.client.LRange(ctx, teamLogKey(id), 0, int64(bound)-1).Result()
	if err != nil {
		return nil, err
	}

	// Stored newest-first; reverse into chronological order
	msgs := make([]model.TeamMessage, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		var msg model.TeamMessage
		if err := json.Unmarshal([]byte(rows[i]), &msg); err != nil {
			continue // Skip invalid data
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, profileKey(profile.Token), data, s.cfg.ProfileTTL).Err()
}

func (s *Storage) GetProfile(ctx context.Context, token model.ProfileToken) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
