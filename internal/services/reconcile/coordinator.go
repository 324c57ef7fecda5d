// Package reconcile decides, when a player signs in, whether to load their
// existing score for today, claim the anonymous score they played before
// signing in, or do nothing. Failures never block play: every error path
// ends in NoChange.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/crosswordgame-daily/internal/dependencies/clock"
	"github.com/mcoot/crosswordgame-daily/internal/metrics"
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/claim"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
)

// LocalScore is what a client remembers about a score it played anonymously.
// ScoreID is empty if the client never saw the submission's response; in that
// case ClientRef, if set, is used to find it.
type LocalScore struct {
	ScoreID           model.ScoreID
	ClientRef         string
	PuzzleDate        model.PuzzleDate
	Score             int
	TimeSeconds       int
	Mistakes          int
	CorrectPlacements int
}

// ScoreReader reads a player's score for a date
type ScoreReader interface {
	GetForPlayer(ctx context.Context, playerID model.PlayerID, date model.PuzzleDate) (*model.Score, error)
}

// Claimer claims anonymous scores
type Claimer interface {
	Claim(ctx context.Context, scoreID model.ScoreID, playerID model.PlayerID) (claim.Result, error)
}

// Ranker computes a score's standing
type Ranker interface {
	Standing(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) ranking.Standing
}

// PendingLookup resolves a client reference to a committed score id
type PendingLookup interface {
	Lookup(ref string) (model.ScoreID, bool)
	InFlight(ref string) bool
}

// Config holds configuration for the coordinator
type Config struct {
	// MaxRetries bounds the delayed lookups of an unresolved score id,
	// after the first immediate lookup
	MaxRetries int
	RetryDelay time.Duration

	// Location decides which calendar day is "today"
	Location *time.Location
}

// DefaultConfig returns default reconciliation configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: time.Second,
		Location:   time.UTC,
	}
}

// Coordinator runs reconciliations
type Coordinator struct {
	scores  ScoreReader
	claims  Claimer
	ranker  Ranker
	pending PendingLookup
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config

	inFlight *inFlight
}

// New creates a new Coordinator
func New(scores ScoreReader, claims Claimer, ranker Ranker, pending PendingLookup, clock clock.Clock, metrics *metrics.Metrics, logger *slog.Logger, cfg Config) *Coordinator {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Coordinator{
		scores:   scores,
		claims:   claims,
		ranker:   ranker,
		pending:  pending,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		inFlight: newInFlight(),
	}
}

// Today returns the current puzzle date
func (c *Coordinator) Today() model.PuzzleDate {
	return model.PuzzleDateOf(c.clock.Now(), c.cfg.Location)
}

// Reconcile runs once for a sign-in by playerID. local may be nil.
// A second call for the same player while one is running returns
// NoChange immediately.
func (c *Coordinator) Reconcile(ctx context.Context, playerID model.PlayerID, local *LocalScore) Outcome {
	release, ok := c.inFlight.acquire(playerID)
	if !ok {
		c.logger.Info("reconciliation already in progress", "player_id", playerID)
		c.metrics.Reconciliation(ActionNoChange)
		return NoChange{Reason: ReasonInProgress}
	}
	defer release()

	outcome := c.reconcile(ctx, playerID, local)

	c.metrics.Reconciliation(outcome.Action())
	attrs := []any{"player_id", playerID, "action", outcome.Action()}
	if nc, ok := outcome.(NoChange); ok {
		attrs = append(attrs, "reason", nc.Reason)
	}
	c.logger.Info("reconciliation finished", attrs...)
	return outcome
}

func (c *Coordinator) reconcile(ctx context.Context, playerID model.PlayerID, local *LocalScore) Outcome {
	today := c.Today()

	existing, err := c.scores.GetForPlayer(ctx, playerID, today)
	switch {
	case err == nil:
		if local != nil {
			c.logger.Info("discarding local score in favour of server score",
				"player_id", playerID,
				"score_id", existing.ID,
				"local_score_id", local.ScoreID,
			)
		}
		return LoadedExisting{Score: *existing, Standing: c.standing(ctx, existing)}
	case !errors.Is(err, model.ErrScoreNotFound):
		c.logger.Warn("existing score lookup failed", "player_id", playerID, "error", err)
		return NoChange{Reason: ReasonStoreUnavailable}
	}

	if local == nil {
		return NoChange{Reason: ReasonNoLocalScore}
	}

	scoreID := local.ScoreID
	if scoreID == "" {
		if local.ClientRef == "" {
			return NoChange{Reason: ReasonNoLocalScore}
		}
		var reason string
		scoreID, reason = c.awaitScoreID(ctx, playerID, local.ClientRef)
		if scoreID == "" {
			return NoChange{Reason: reason}
		}
	}

	result, err := c.claims.Claim(ctx, scoreID, playerID)
	if err != nil {
		return NoChange{Reason: ReasonStoreUnavailable}
	}

	switch result.Outcome {
	case model.ClaimClaimed, model.ClaimAlreadyOwnedBySelf:
		score := result.Score
		if score == nil {
			score = local.asScore(scoreID, playerID, today)
		}
		return ClaimedAnonymous{Score: *score, Standing: c.standing(ctx, score)}
	case model.ClaimNotFound:
		c.logger.Warn("local score not found on server", "player_id", playerID, "score_id", scoreID)
		return NoChange{Reason: ReasonScoreNotFound}
	default:
		return NoChange{Reason: ReasonClaimConflict}
	}
}

// awaitScoreID looks ref up once, then retries up to MaxRetries times with
// a fixed delay while the original submission may still be committing.
func (c *Coordinator) awaitScoreID(ctx context.Context, playerID model.PlayerID, ref string) (model.ScoreID, string) {
	if c.pending == nil {
		return "", ReasonScoreIDPending
	}
	for attempt := 0; ; attempt++ {
		if id, ok := c.pending.Lookup(ref); ok {
			return id, ""
		}
		if attempt >= c.cfg.MaxRetries {
			// The submission may have failed permanently. Nothing here can
			// recover it, so the local score stays unclaimed.
			c.logger.Warn("local score id never resolved",
				"player_id", playerID,
				"client_ref", ref,
				"attempts", attempt+1,
				"still_in_flight", c.pending.InFlight(ref),
			)
			return "", ReasonScoreIDPending
		}
		c.metrics.ReconciliationRetry()
		if err := c.clock.Sleep(ctx, c.cfg.RetryDelay); err != nil {
			return "", ReasonCancelled
		}
	}
}

func (c *Coordinator) standing(ctx context.Context, score *model.Score) ranking.Standing {
	return c.ranker.Standing(ctx, score.PuzzleDate, score.Score, score.TimeSeconds)
}

// asScore rebuilds the claimed row from the client's copy when the server
// copy could not be read back
func (l *LocalScore) asScore(id model.ScoreID, playerID model.PlayerID, today model.PuzzleDate) *model.Score {
	date := l.PuzzleDate
	if date == "" {
		date = today
	}
	return &model.Score{
		ID:                id,
		PlayerID:          playerID,
		PuzzleDate:        date,
		Score:             l.Score,
		TimeSeconds:       l.TimeSeconds,
		Mistakes:          l.Mistakes,
		CorrectPlacements: l.CorrectPlacements,
	}
}
