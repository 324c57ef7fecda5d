// Package claim attaches a player identity to an anonymous score row.
//
// The conditional update in storage.ClaimScore is the only thing that stops
// two claimants from both winning. This service interprets its result and
// never retries.
package claim

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/crosswordgame-daily/internal/metrics"
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
)

// Result is the outcome of a claim and, when known, the row afterwards
type Result struct {
	Outcome model.ClaimOutcome
	Score   *model.Score
}

// Service performs claims
type Service struct {
	storage storage.ScoreStorage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new claim service
func New(storage storage.ScoreStorage, metrics *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		metrics: metrics,
		logger:  logger,
	}
}

// Claim sets the owner of scoreID to playerID if the row is anonymous.
//
//   - ClaimClaimed: this call transferred ownership
//   - ClaimAlreadyOwnedBySelf: the row already belonged to playerID
//   - ClaimConflict: the row belongs to someone else, or playerID already
//     owns a different row for that date
//   - ClaimNotFound: no such row
//
// Only store failures are returned as errors.
func (s *Service) Claim(ctx context.Context, scoreID model.ScoreID, playerID model.PlayerID) (Result, error) {
	if scoreID == "" {
		return s.finish(ctx, scoreID, playerID, Result{Outcome: model.ClaimNotFound}), nil
	}

	updated, err := s.storage.ClaimScore(ctx, scoreID, playerID)
	if err != nil {
		s.logger.Error("claim failed", "score_id", scoreID, "player_id", playerID, "error", err)
		return Result{}, err
	}

	row, err := s.storage.GetScore(ctx, scoreID)
	if updated {
		if err != nil {
			// The claim is committed; only the read back failed
			s.logger.Warn("claimed score could not be re-read", "score_id", scoreID, "error", err)
			row = nil
		}
		return s.finish(ctx, scoreID, playerID, Result{Outcome: model.ClaimClaimed, Score: row}), nil
	}

	switch {
	case errors.Is(err, model.ErrScoreNotFound):
		return s.finish(ctx, scoreID, playerID, Result{Outcome: model.ClaimNotFound}), nil
	case err != nil:
		s.logger.Error("claim re-read failed", "score_id", scoreID, "player_id", playerID, "error", err)
		return Result{}, err
	case row.IsOwnedBy(playerID):
		return s.finish(ctx, scoreID, playerID, Result{Outcome: model.ClaimAlreadyOwnedBySelf, Score: row}), nil
	default:
		return s.finish(ctx, scoreID, playerID, Result{Outcome: model.ClaimConflict}), nil
	}
}

func (s *Service) finish(ctx context.Context, scoreID model.ScoreID, playerID model.PlayerID, result Result) Result {
	s.metrics.Claim(result.Outcome)
	level := slog.LevelInfo
	if !result.Outcome.Succeeded() {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "claim resolved",
		"score_id", scoreID,
		"player_id", playerID,
		"outcome", result.Outcome.String(),
	)
	return result
}
