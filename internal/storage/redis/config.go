package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RoomTTL bounds how long a transient room record lives; rooms are
	// never explicitly deleted by the protocol
	RoomTTL time.Duration

	// ProfileTTL bounds profile lifetime; zero means no expiry
	ProfileTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		RoomTTL:      6 * time.Hour,
		ProfileTTL:   0,
	}
}
