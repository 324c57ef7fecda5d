package factory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/crosswordgame-daily/internal/dependencies/mocks"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
	"github.com/mcoot/crosswordgame-daily/internal/storage/memory"
	"github.com/mcoot/crosswordgame-daily/internal/testutil"
)

// TestNow is the mock clock's starting time in test apps
var TestNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and in-memory storage
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New(), Config{})
}

// NewTestAppWithStorage creates a test App over the given storage
func NewTestAppWithStorage(store storage.Storage, cfg Config) *TestApp {
	mockClock := mocks.NewMockClock(TestNow)
	mockIDs := mocks.NewMockIDs()

	app := newWithDependencies(dependencies{
		store:    store,
		clock:    mockClock,
		ids:      mockIDs,
		registry: prometheus.NewRegistry(),
		logger:   testutil.NopLogger(),
	}, cfg)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}
