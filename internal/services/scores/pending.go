package scores

import (
	"sync"
	"time"

	"github.com/mcoot/crosswordgame-daily/internal/dependencies/clock"
	"github.com/mcoot/crosswordgame-daily/internal/model"
)

// DefaultPendingTTL is how long a client reference is remembered
const DefaultPendingTTL = 10 * time.Minute

type pendingEntry struct {
	scoreID model.ScoreID // empty while the insert is in flight
	expires time.Time
}

// PendingSubmissions maps client-chosen submission references to the score
// id they were stored under. A client that signs in before learning the id
// of its anonymous submission can resolve it here once the insert commits.
// Entries are process-local and expire after the configured TTL.
type PendingSubmissions struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]pendingEntry
}

// NewPendingSubmissions creates an empty registry
func NewPendingSubmissions(clock clock.Clock, ttl time.Duration) *PendingSubmissions {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &PendingSubmissions{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]pendingEntry),
	}
}

// Begin records that a submission with ref is being stored
func (p *PendingSubmissions) Begin(ref string) {
	now := p.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepLocked(now)
	if e, ok := p.entries[ref]; ok && e.scoreID != "" {
		return
	}
	p.entries[ref] = pendingEntry{expires: now.Add(p.ttl)}
}

// Complete records the id the submission was stored under
func (p *PendingSubmissions) Complete(ref string, id model.ScoreID) {
	now := p.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[ref] = pendingEntry{scoreID: id, expires: now.Add(p.ttl)}
}

// Abandon forgets a submission whose insert failed
func (p *PendingSubmissions) Abandon(ref string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[ref]; ok && e.scoreID == "" {
		delete(p.entries, ref)
	}
}

// Lookup returns the score id for ref once its insert has committed
func (p *PendingSubmissions) Lookup(ref string) (model.ScoreID, bool) {
	now := p.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[ref]
	if !ok || e.scoreID == "" || now.After(e.expires) {
		return "", false
	}
	return e.scoreID, true
}

// InFlight reports whether a submission with ref has started but not committed
func (p *PendingSubmissions) InFlight(ref string) bool {
	now := p.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[ref]
	return ok && e.scoreID == "" && !now.After(e.expires)
}

func (p *PendingSubmissions) sweepLocked(now time.Time) {
	for ref, e := range p.entries {
		if now.After(e.expires) {
			delete(p.entries, ref)
		}
	}
}
