package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// A single mutex serialises writes, which makes InsertScore and ClaimScore
// atomic in the same way a conditional row update is in a database.
type Storage struct {
	mu sync.RWMutex

	scores            map[model.ScoreID]*model.Score
	playerDateIndex   map[playerDateKey]model.ScoreID
	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
}

type playerDateKey struct {
	playerID model.PlayerID
	date     model.PuzzleDate
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		scores:            make(map[model.ScoreID]*model.Score),
		playerDateIndex:   make(map[playerDateKey]model.ScoreID),
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, score *model.Score) (*model.Score, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if score.IsClaimed() {
		key := playerDateKey{playerID: score.PlayerID, date: score.PuzzleDate}
		if id, ok := s.playerDateIndex[key]; ok {
			existing := *s.scores[id]
			return &existing, true, nil
		}
		s.playerDateIndex[key] = score.ID
	}

	stored := *score
	s.scores[score.ID] = &stored
	out := stored
	return &out, false, nil
}

func (s *Storage) GetScore(ctx context.Context, id model.ScoreID) (*model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[id]
	if !ok {
		return nil, model.ErrScoreNotFound
	}
	out := *score
	return &out, nil
}

func (s *Storage) GetScoreForPlayer(ctx context.Context, playerID model.PlayerID, date model.PuzzleDate) (*model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.playerDateIndex[playerDateKey{playerID: playerID, date: date}]
	if !ok {
		return nil, model.ErrScoreNotFound
	}
	out := *s.scores[id]
	return &out, nil
}

func (s *Storage) ClaimScore(ctx context.Context, id model.ScoreID, playerID model.PlayerID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	score, ok := s.scores[id]
	if !ok || score.IsClaimed() {
		return false, nil
	}

	key := playerDateKey{playerID: playerID, date: score.PuzzleDate}
	if _, taken := s.playerDateIndex[key]; taken {
		return false, nil
	}

	score.PlayerID = playerID
	s.playerDateIndex[key] = id
	return true, nil
}

func (s *Storage) CountClaimedAhead(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) (int, error) {
	return s.countClaimed(date, func(row *model.Score) bool {
		return row.Ahead(score, timeSeconds)
	}), nil
}

func (s *Storage) CountClaimedBelow(ctx context.Context, date model.PuzzleDate, score int) (int, error) {
	return s.countClaimed(date, func(row *model.Score) bool {
		return row.Score < score
	}), nil
}

func (s *Storage) CountClaimed(ctx context.Context, date model.PuzzleDate) (int, error) {
	return s.countClaimed(date, func(*model.Score) bool { return true }), nil
}

func (s *Storage) countClaimed(date model.PuzzleDate, match func(*model.Score) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, row := range s.scores {
		if row.IsClaimed() && row.PuzzleDate == date && match(row) {
			n++
		}
	}
	return n
}

func (s *Storage) ListClaimed(ctx context.Context, date model.PuzzleDate, offset, limit int) ([]*model.Score, error) {
	s.mu.RLock()
	var rows []*model.Score
	for _, row := range s.scores {
		if row.IsClaimed() && row.PuzzleDate == date {
			out := *row
			rows = append(rows, &out)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		if rows[i].TimeSeconds != rows[j].TimeSeconds {
			return rows[i].TimeSeconds < rows[j].TimeSeconds
		}
		return rows[i].ID < rows[j].ID
	})

	if offset >= len(rows) || limit <= 0 {
		return []*model.Score{}, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayers(ctx context.Context, ids []model.PlayerID) (map[model.PlayerID]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[model.PlayerID]*model.Player, len(ids))
	for _, id := range ids {
		if player, ok := s.players[id]; ok {
			p := *player
			result[id] = &p
		}
	}
	return result, nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rp
	s.registeredPlayers[rp.PlayerID] = &r
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	r := *rp
	return &r, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	r := *rp
	return &r, nil
}
