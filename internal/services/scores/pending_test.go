package scores

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/crosswordgame-daily/internal/dependencies/mocks"
	"github.com/mcoot/crosswordgame-daily/internal/model"
)

func TestPendingSubmissionsLifecycle(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	p := NewPendingSubmissions(clock, time.Minute)

	_, ok := p.Lookup("ref")
	assert.False(t, ok)
	assert.False(t, p.InFlight("ref"))

	p.Begin("ref")
	_, ok = p.Lookup("ref")
	assert.False(t, ok, "no id until the insert commits")
	assert.True(t, p.InFlight("ref"))

	p.Complete("ref", "score-1")
	id, ok := p.Lookup("ref")
	assert.True(t, ok)
	assert.Equal(t, model.ScoreID("score-1"), id)
	assert.False(t, p.InFlight("ref"))
}

func TestPendingSubmissionsAbandon(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	p := NewPendingSubmissions(clock, time.Minute)

	p.Begin("ref")
	p.Abandon("ref")
	assert.False(t, p.InFlight("ref"))

	p.Complete("done", "score-1")
	p.Abandon("done")
	_, ok := p.Lookup("done")
	assert.True(t, ok, "committed entries are not abandoned")
}

func TestPendingSubmissionsBeginKeepsCommittedID(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	p := NewPendingSubmissions(clock, time.Minute)

	p.Complete("ref", "score-1")
	p.Begin("ref")

	id, ok := p.Lookup("ref")
	assert.True(t, ok)
	assert.Equal(t, model.ScoreID("score-1"), id)
}

func TestPendingSubmissionsExpire(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	p := NewPendingSubmissions(clock, time.Minute)

	p.Complete("ref", "score-1")
	clock.Advance(61 * time.Second)

	_, ok := p.Lookup("ref")
	assert.False(t, ok)

	p.Begin("other")
	p.mu.Lock()
	_, kept := p.entries["ref"]
	p.mu.Unlock()
	assert.False(t, kept, "expired entries are swept")
}
