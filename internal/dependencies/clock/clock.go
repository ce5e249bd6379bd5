package clock

import "time"

// Clock is the time source behind matchmaker deadlines, golden egg roll
// gates and record timestamps; mocked in tests to pin all of them
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}
