package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Storage backend names
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the full server configuration. Every field maps to a flag
// and an ARENA_-prefixed environment variable.
type Config struct {
	Bind     string
	Port     int
	Storage  string
	RedisURL string

	// Golden egg odds, in permyriad (parts per 10000)
	GoldenMatchmakingPermyriad int
	GoldenHourlyPermyriad      int
	GoldenRollInterval         time.Duration

	TeamLogBound int
	RoomTTL      time.Duration

	Verbose bool
}

// Default returns the configuration defaults
func Default() *Config {
	return &Config{
		Bind:                       "0.0.0.0",
		Port:                       8080,
		Storage:                    StorageMemory,
		RedisURL:                   "redis://localhost:6379/0",
		GoldenMatchmakingPermyriad: 10,
		GoldenHourlyPermyriad:      500,
		GoldenRollInterval:         time.Hour,
		TeamLogBound:               50,
		RoomTTL:                    6 * time.Hour,
		Verbose:                    false,
	}
}

// Validate checks the configuration for internal consistency
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.Storage != StorageMemory && c.Storage != StorageRedis {
		return fmt.Errorf("invalid storage backend: %q", c.Storage)
	}
	if c.Storage == StorageRedis && c.RedisURL == "" {
		return errors.New("redis storage requires --redis-url")
	}
	if c.GoldenMatchmakingPermyriad < 0 || c.GoldenMatchmakingPermyriad > 10000 {
		return fmt.Errorf("matchmaking golden odds out of range: %d", c.GoldenMatchmakingPermyriad)
	}
	if c.GoldenHourlyPermyriad < 0 || c.GoldenHourlyPermyriad > 10000 {
		return fmt.Errorf("hourly golden odds out of range: %d", c.GoldenHourlyPermyriad)
	}
	if c.TeamLogBound < 1 {
		return fmt.Errorf("team log bound must be positive: %d", c.TeamLogBound)
	}
	return nil
}

// Bind registers the configuration flags on a cobra command and wires
// them to ARENA_-prefixed environment variables through viper. Flags
// win over environment, environment over defaults.
func Bind(cmd *cobra.Command, cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := cmd.Flags()

	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: ARENA_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: ARENA_PORT)")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "storage backend, memory or redis (env: ARENA_STORAGE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis connection URL (env: ARENA_REDIS_URL)")
	fs.IntVar(&cfg.GoldenMatchmakingPermyriad, "golden-matchmaking-odds", cfg.GoldenMatchmakingPermyriad, "golden egg odds per matchmaking entry, in 1/10000 (env: ARENA_GOLDEN_MATCHMAKING_ODDS)")
	fs.IntVar(&cfg.GoldenHourlyPermyriad, "golden-hourly-odds", cfg.GoldenHourlyPermyriad, "golden egg odds per hourly roll, in 1/10000 (env: ARENA_GOLDEN_HOURLY_ODDS)")
	fs.DurationVar(&cfg.GoldenRollInterval, "golden-roll-interval", cfg.GoldenRollInterval, "minimum time between golden egg rolls (env: ARENA_GOLDEN_ROLL_INTERVAL)")
	fs.IntVar(&cfg.TeamLogBound, "team-log-bound", cfg.TeamLogBound, "max messages kept per team chat log (env: ARENA_TEAM_LOG_BOUND)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", cfg.RoomTTL, "idle room expiry in the redis backend (env: ARENA_ROOM_TTL)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "debug logging (env: ARENA_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}
