package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/crosswordgame-daily/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Sleep advances virtual time instantly and records the requested durations.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	sleeps      []time.Duration

	// OnSleep, if set, runs after each Sleep has advanced the clock
	OnSleep func(d time.Duration)
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// Sleep advances the clock by d without blocking
func (c *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.sleeps = append(c.sleeps, d)
	onSleep := c.OnSleep
	c.mu.Unlock()

	if onSleep != nil {
		onSleep(d)
	}
	return ctx.Err()
}

// Sleeps returns the durations passed to Sleep so far
func (c *MockClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = t
}
