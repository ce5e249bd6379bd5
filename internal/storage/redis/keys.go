package redis

import (
	"fmt"

	"github.com/ciocnim/arena/internal/model"
)

// Key prefix for all arena data
const keyPrefix = "arena"

// roomKey returns the Redis key for a Room record
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// resolvedRoundsKey returns the Redis key for the global round counter
func resolvedRoundsKey() string {
	return fmt.Sprintf("%s:counter:resolved_rounds", keyPrefix)
}

// teamKey returns the Redis key for a Team record
func teamKey(id model.TeamID) string {
	return fmt.Sprintf("%s:team:%s", keyPrefix, id)
}

// teamMembersKey returns the Redis key for a team's member SET
func teamMembersKey(id model.TeamID) string {
	return fmt.Sprintf("%s:team:%s:members", keyPrefix, id)
}

// teamRankingKey returns the Redis key for a team's score ZSET
func teamRankingKey(id model.TeamID) string {
	return fmt.Sprintf("%s:team:%s:ranking", keyPrefix, id)
}

// teamLogKey returns the Redis key for a team's message LIST
func teamLogKey(id model.TeamID) string {
	return fmt.Sprintf("%s:team:%s:log", keyPrefix, id)
}

// profileKey returns the Redis key for a Profile record
func profileKey(token model.ProfileToken) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, token)
}
