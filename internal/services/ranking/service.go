// Package ranking computes rank and percentile for a score against every
// claimed score on the same puzzle date. Results are computed fresh from the
// store on each call and never cached.
package ranking

import (
	"context"
	"log/slog"
	"math"

	"github.com/mcoot/crosswordgame-daily/internal/metrics"
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
)

const (
	// NeutralPercentile is reported when nobody has a claimed score yet,
	// or when the store cannot be read
	NeutralPercentile = 50

	// UnknownRank is reported by Standing when the store cannot be read
	UnknownRank = 0
)

// Standing is a score's position on its puzzle date
type Standing struct {
	Rank       int
	Percentile int
}

// Known reports whether the rank was computed from the store
func (s Standing) Known() bool {
	return s.Rank != UnknownRank
}

// Service computes ranks and percentiles
type Service struct {
	storage storage.ScoreStorage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new ranking service
func New(storage storage.ScoreStorage, metrics *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		metrics: metrics,
		logger:  logger,
	}
}

// Rank returns 1 + the number of claimed rows that sort strictly ahead of
// (score, timeSeconds). Rows with identical score and time share a rank.
func (s *Service) Rank(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) (int, error) {
	if err := date.Validate(); err != nil {
		return 0, err
	}
	if err := model.ValidateResult(score, timeSeconds); err != nil {
		return 0, err
	}
	ahead, err := s.storage.CountClaimedAhead(ctx, date, score, timeSeconds)
	if err != nil {
		return 0, err
	}
	return ahead + 1, nil
}

// Percentile returns the share of claimed rows with a strictly lower score,
// rounded to a whole percent in [0,100]
func (s *Service) Percentile(ctx context.Context, date model.PuzzleDate, score int) (int, error) {
	if err := date.Validate(); err != nil {
		return 0, err
	}
	if err := model.ValidateResult(score, 0); err != nil {
		return 0, err
	}
	// Claimed rows are only ever added, so counting below before the total
	// keeps below <= total when claims land between the two reads
	below, err := s.storage.CountClaimedBelow(ctx, date, score)
	if err != nil {
		return 0, err
	}
	total, err := s.storage.CountClaimed(ctx, date)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return NeutralPercentile, nil
	}
	return percentOf(below, total), nil
}

// RankOrUnknown is Rank with store failures logged and reported as
// UnknownRank. Only invalid arguments are returned as errors.
func (s *Service) RankOrUnknown(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) (int, error) {
	if err := validateQuery(date, score, timeSeconds); err != nil {
		return 0, err
	}
	rank, err := s.Rank(ctx, date, score, timeSeconds)
	if err != nil {
		s.logger.Warn("rank unavailable, using fallback",
			"puzzle_date", date,
			"error", err,
		)
		s.metrics.RankFallback()
		return UnknownRank, nil
	}
	return rank, nil
}

// PercentileOrNeutral is Percentile with store failures logged and reported
// as NeutralPercentile. Only invalid arguments are returned as errors.
func (s *Service) PercentileOrNeutral(ctx context.Context, date model.PuzzleDate, score int) (int, error) {
	if err := validateQuery(date, score, 0); err != nil {
		return 0, err
	}
	percentile, err := s.Percentile(ctx, date, score)
	if err != nil {
		s.logger.Warn("percentile unavailable, using fallback",
			"puzzle_date", date,
			"error", err,
		)
		s.metrics.RankFallback()
		return NeutralPercentile, nil
	}
	return percentile, nil
}

// Standing returns rank and percentile together. It never fails: store
// errors and invalid arguments are reported as UnknownRank and
// NeutralPercentile.
func (s *Service) Standing(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) Standing {
	rank, err := s.RankOrUnknown(ctx, date, score, timeSeconds)
	if err != nil {
		rank = UnknownRank
	}
	if rank == UnknownRank {
		return Standing{Rank: UnknownRank, Percentile: NeutralPercentile}
	}
	percentile, err := s.PercentileOrNeutral(ctx, date, score)
	if err != nil {
		percentile = NeutralPercentile
	}
	return Standing{Rank: rank, Percentile: percentile}
}

func validateQuery(date model.PuzzleDate, score, timeSeconds int) error {
	if err := date.Validate(); err != nil {
		return err
	}
	return model.ValidateResult(score, timeSeconds)
}

func percentOf(part, total int) int {
	p := int(math.Round(100 * float64(part) / float64(total)))
	return min(max(p, 0), 100)
}
