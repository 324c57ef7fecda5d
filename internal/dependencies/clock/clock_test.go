package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockSleepReturnsAfterDuration(t *testing.T) {
	c := New()
	start := time.Now()

	err := c.Sleep(context.Background(), 10*time.Millisecond)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRealClockSleepHonoursCancellation(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRealClockSleepZeroDuration(t *testing.T) {
	assert.NoError(t, New().Sleep(context.Background(), 0))
}
