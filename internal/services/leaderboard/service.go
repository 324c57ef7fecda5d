// Package leaderboard assembles paginated leaderboard views for a puzzle date.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
)

// Config holds configuration for the leaderboard service
type Config struct {
	MaxPageSize int
}

// DefaultConfig returns default leaderboard configuration
func DefaultConfig() Config {
	return Config{
		MaxPageSize: 10000,
	}
}

// Ranker computes a score's standing on its date
type Ranker interface {
	Standing(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) ranking.Standing
}

// PlayerStanding is a player's own row with its rank, for display
// alongside a page that does not contain it
type PlayerStanding struct {
	Entry      model.LeaderboardEntry
	Percentile int
}

// Service builds leaderboard pages
type Service struct {
	storage storage.Storage
	ranker  Ranker
	logger  *slog.Logger

	maxPageSize int
}

// New creates a new leaderboard service
func New(storage storage.Storage, ranker Ranker, logger *slog.Logger, cfg Config) *Service {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultConfig().MaxPageSize
	}
	return &Service{
		storage:     storage,
		ranker:      ranker,
		logger:      logger,
		maxPageSize: cfg.MaxPageSize,
	}
}

// MaxPageSize returns the largest accepted page size
func (s *Service) MaxPageSize() int {
	return s.maxPageSize
}

// Page returns up to pageSize entries starting at absolute position from.
// Entries are ordered by score descending then time ascending, each player
// appears at most once, and ranks are absolute positions.
// A duplicate row for a player is skipped but keeps its position, so such a
// page can hold fewer than pageSize entries and its ranks can skip a value.
func (s *Service) Page(ctx context.Context, date model.PuzzleDate, from, pageSize int) (*model.LeaderboardPage, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	if from < 0 {
		return nil, fmt.Errorf("%w: from %d is negative", model.ErrInvalidPage, from)
	}
	if pageSize < 1 || pageSize > s.maxPageSize {
		return nil, fmt.Errorf("%w: page size %d outside [1,%d]", model.ErrInvalidPage, pageSize, s.maxPageSize)
	}

	// One extra row tells us whether another page exists
	rows, err := s.storage.ListClaimed(ctx, date, from, pageSize+1)
	if err != nil {
		return nil, err
	}
	hasMore := len(rows) > pageSize
	consumed := min(len(rows), pageSize)
	rows = rows[:consumed]

	entries := make([]model.LeaderboardEntry, 0, consumed)
	seen := make(map[model.PlayerID]bool, consumed)
	playerIDs := make([]model.PlayerID, 0, consumed)
	for i, row := range rows {
		if seen[row.PlayerID] {
			s.logger.Warn("duplicate claimed row on leaderboard",
				"puzzle_date", date,
				"player_id", row.PlayerID,
				"score_id", row.ID,
			)
			continue
		}
		seen[row.PlayerID] = true
		playerIDs = append(playerIDs, row.PlayerID)
		entries = append(entries, model.LeaderboardEntry{
			Rank:  from + i + 1,
			Score: *row,
		})
	}

	s.attachDisplayNames(ctx, entries, playerIDs)

	return &model.LeaderboardPage{
		Date:     date,
		Entries:  entries,
		HasMore:  hasMore,
		NextFrom: from + consumed,
	}, nil
}

// PlayerStanding returns the player's row for date with its rank, or
// model.ErrScoreNotFound if the player has not played
func (s *Service) PlayerStanding(ctx context.Context, date model.PuzzleDate, playerID model.PlayerID) (*PlayerStanding, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	score, err := s.storage.GetScoreForPlayer(ctx, playerID, date)
	if err != nil {
		return nil, err
	}

	standing := s.ranker.Standing(ctx, date, score.Score, score.TimeSeconds)
	entry := model.LeaderboardEntry{Rank: standing.Rank, Score: *score}
	entries := []model.LeaderboardEntry{entry}
	s.attachDisplayNames(ctx, entries, []model.PlayerID{playerID})

	return &PlayerStanding{Entry: entries[0], Percentile: standing.Percentile}, nil
}

// attachDisplayNames fills in display names. Names are cosmetic, so a
// failed lookup leaves them empty rather than failing the page.
func (s *Service) attachDisplayNames(ctx context.Context, entries []model.LeaderboardEntry, playerIDs []model.PlayerID) {
	if len(playerIDs) == 0 {
		return
	}
	players, err := s.storage.GetPlayers(ctx, playerIDs)
	if err != nil {
		s.logger.Warn("display names unavailable", "error", err)
		return
	}
	for i := range entries {
		if p, ok := players[entries[i].Score.PlayerID]; ok {
			entries[i].DisplayName = p.DisplayName
		}
	}
}
