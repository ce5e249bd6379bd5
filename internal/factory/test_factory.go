package factory

import (
	"time"

	"github.com/ciocnim/arena/internal/dependencies/mocks"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/services/profile"
	"github.com/ciocnim/arena/internal/storage/memory"
	"github.com/ciocnim/arena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked
// dependencies, in-memory storage and a synchronous broker
func NewTestApp() *TestApp {
	logger := testutil.NopLogger()
	store := memory.New()
	broker := pubsub.NewMemoryBroker(logger)
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, broker, mockClock, mockRandom, profile.DefaultGrantConfig(), 0, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
