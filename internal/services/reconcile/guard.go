package reconcile

import (
	"sync"

	"github.com/mcoot/crosswordgame-daily/internal/model"
)

// inFlight tracks players with a reconciliation running in this process
type inFlight struct {
	mu      sync.Mutex
	players map[model.PlayerID]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{players: make(map[model.PlayerID]struct{})}
}

// acquire marks playerID busy. It returns false if the player already was;
// otherwise the caller must call release exactly once.
func (f *inFlight) acquire(playerID model.PlayerID) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.players[playerID]; busy {
		return nil, false
	}
	f.players[playerID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.players, playerID)
			f.mu.Unlock()
		})
	}, true
}

func (f *inFlight) busy(playerID model.PlayerID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.players[playerID]
	return ok
}
