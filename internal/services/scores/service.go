package scores

import (
	"context"
	"log/slog"

	"github.com/mcoot/crosswordgame-daily/internal/dependencies/ids"
	"github.com/mcoot/crosswordgame-daily/internal/metrics"
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
)

// Submission is a completed puzzle as reported by a client
type Submission struct {
	PuzzleDate        model.PuzzleDate
	Score             int
	TimeSeconds       int
	Mistakes          int
	CorrectPlacements int

	// PlayerID is empty for an anonymous submission
	PlayerID model.PlayerID

	// ClientRef is an optional client-chosen reference used to find the
	// stored id before the client has seen the response
	ClientRef string
}

// SubmitResult is the stored row and whether it already existed
type SubmitResult struct {
	Score    *model.Score
	Existing bool
}

// Service stores submitted scores exactly once per player per day
type Service struct {
	storage storage.ScoreStorage
	ids     ids.Generator
	pending *PendingSubmissions
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new scores service
func New(storage storage.ScoreStorage, ids ids.Generator, pending *PendingSubmissions, metrics *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		ids:     ids,
		pending: pending,
		metrics: metrics,
		logger:  logger,
	}
}

// Submit stores a score. If the submission is identified and the player
// already has a row for the date, that row is returned with Existing set and
// nothing is written, so clients may safely retry.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	score := &model.Score{
		ID:                model.ScoreID(s.ids.NewID()),
		PlayerID:          sub.PlayerID,
		PuzzleDate:        sub.PuzzleDate,
		Score:             sub.Score,
		TimeSeconds:       sub.TimeSeconds,
		Mistakes:          sub.Mistakes,
		CorrectPlacements: sub.CorrectPlacements,
	}
	if err := score.Validate(); err != nil {
		s.metrics.Submission(metrics.SubmissionInvalid)
		return nil, err
	}

	if sub.ClientRef != "" && s.pending != nil {
		s.pending.Begin(sub.ClientRef)
	}

	stored, existing, err := s.storage.InsertScore(ctx, score)
	if err != nil {
		if sub.ClientRef != "" && s.pending != nil {
			s.pending.Abandon(sub.ClientRef)
		}
		s.metrics.Submission(metrics.SubmissionFailed)
		s.logger.Error("score insert failed",
			"puzzle_date", score.PuzzleDate,
			"player_id", score.PlayerID,
			"error", err,
		)
		return nil, err
	}

	if sub.ClientRef != "" && s.pending != nil {
		s.pending.Complete(sub.ClientRef, stored.ID)
	}

	if existing {
		s.metrics.Submission(metrics.SubmissionExisting)
		s.logger.Info("score already submitted",
			"score_id", stored.ID,
			"puzzle_date", stored.PuzzleDate,
			"player_id", stored.PlayerID,
		)
	} else {
		s.metrics.Submission(metrics.SubmissionCreated)
		s.logger.Info("score submitted",
			"score_id", stored.ID,
			"puzzle_date", stored.PuzzleDate,
			"anonymous", !stored.IsClaimed(),
		)
	}

	return &SubmitResult{Score: stored, Existing: existing}, nil
}

// GetForPlayer returns the player's score for date, or model.ErrScoreNotFound
func (s *Service) GetForPlayer(ctx context.Context, playerID model.PlayerID, date model.PuzzleDate) (*model.Score, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	return s.storage.GetScoreForPlayer(ctx, playerID, date)
}

// GetScore returns a score by id
func (s *Service) GetScore(ctx context.Context, id model.ScoreID) (*model.Score, error) {
	if id == "" {
		return nil, model.ErrScoreNotFound
	}
	return s.storage.GetScore(ctx, id)
}
