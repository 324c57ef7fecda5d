package factory

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/reconcile"
	"github.com/mcoot/crosswordgame-daily/internal/services/scores"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
	"github.com/mcoot/crosswordgame-daily/internal/storage/memory"
	redisstorage "github.com/mcoot/crosswordgame-daily/internal/storage/redis"
	"github.com/mcoot/crosswordgame-daily/internal/storage/sqlite"
)

const today = model.PuzzleDate("2024-01-01")

type IntegrationSuite struct {
	suite.Suite
	newStorage func(t *testing.T) storage.Storage
	app        *TestApp
	ctx        context.Context
}

func TestIntegrationMemory(t *testing.T) {
	suite.Run(t, &IntegrationSuite{newStorage: func(*testing.T) storage.Storage {
		return memory.New()
	}})
}

func TestIntegrationRedis(t *testing.T) {
	suite.Run(t, &IntegrationSuite{newStorage: func(t *testing.T) storage.Storage {
		mr := miniredis.RunT(t)
		store, err := redisstorage.New(redisstorage.Config{URL: "redis://" + mr.Addr()})
		if err != nil {
			t.Fatalf("connect to miniredis: %v", err)
		}
		return store
	}})
}

func TestIntegrationSQLite(t *testing.T) {
	suite.Run(t, &IntegrationSuite{newStorage: func(t *testing.T) storage.Storage {
		store, err := sqlite.Open(filepath.Join(t.TempDir(), "scores.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return store
	}})
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestAppWithStorage(s.newStorage(s.T()), Config{})
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) register(username, displayName string) model.PlayerID {
	session, err := s.app.Auth.RegisterPlayer(s.ctx, username, "secret", displayName)
	s.Require().NoError(err)
	return session.PlayerID
}

func (s *IntegrationSuite) submit(playerID model.PlayerID, score, timeSeconds int, ref string) *scores.SubmitResult {
	res, err := s.app.Scores.Submit(s.ctx, scores.Submission{
		PuzzleDate:        today,
		Score:             score,
		TimeSeconds:       timeSeconds,
		CorrectPlacements: 20,
		PlayerID:          playerID,
		ClientRef:         ref,
	})
	s.Require().NoError(err)
	return res
}

// Anonymous play, then sign-in claims the score and it joins the leaderboard
func (s *IntegrationSuite) TestAnonymousPlayThenSignInClaims() {
	alice := s.register("alice", "Alice")
	bob := s.register("bob", "Bob")
	s.submit(bob, 900, 200, "")

	anon := s.submit("", 800, 120, "ref-1")
	s.False(anon.Existing)
	s.False(anon.Score.IsClaimed())

	page, err := s.app.Leaderboard.Page(s.ctx, today, 0, 10)
	s.Require().NoError(err)
	s.Len(page.Entries, 1, "anonymous rows stay off the leaderboard")

	outcome := s.app.Reconciler.Reconcile(s.ctx, alice, &reconcile.LocalScore{
		ClientRef:   "ref-1",
		PuzzleDate:  today,
		Score:       800,
		TimeSeconds: 120,
	})
	claimed, ok := outcome.(reconcile.ClaimedAnonymous)
	s.Require().True(ok, "got %#v", outcome)
	s.Equal(anon.Score.ID, claimed.Score.ID)
	s.Equal(alice, claimed.Score.PlayerID)
	s.Equal(2, claimed.Standing.Rank)
	s.Equal(0, claimed.Standing.Percentile)

	page, err = s.app.Leaderboard.Page(s.ctx, today, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 2)
	s.Equal("Bob", page.Entries[0].DisplayName)
	s.Equal("Alice", page.Entries[1].DisplayName)
	s.Equal(2, page.Entries[1].Rank)
	s.True(page.Includes(alice))

	// Signing in again loads the now-owned score
	outcome = s.app.Reconciler.Reconcile(s.ctx, alice, nil)
	loaded, ok := outcome.(reconcile.LoadedExisting)
	s.Require().True(ok, "got %#v", outcome)
	s.Equal(anon.Score.ID, loaded.Score.ID)
}

// A player who already has today's score is never given a second one
func (s *IntegrationSuite) TestExistingScoreWinsOverLocalScore() {
	alice := s.register("alice", "Alice")
	owned := s.submit(alice, 500, 300, "")
	anon := s.submit("", 950, 60, "")

	outcome := s.app.Reconciler.Reconcile(s.ctx, alice, &reconcile.LocalScore{
		ScoreID:    anon.Score.ID,
		PuzzleDate: today,
		Score:      950,
	})
	loaded, ok := outcome.(reconcile.LoadedExisting)
	s.Require().True(ok, "got %#v", outcome)
	s.Equal(owned.Score.ID, loaded.Score.ID)

	stored, err := s.app.Scores.GetScore(s.ctx, anon.Score.ID)
	s.Require().NoError(err)
	s.False(stored.IsClaimed())
}

// Resubmitting as an identified player returns the first row
func (s *IntegrationSuite) TestIdentifiedResubmitIsIdempotent() {
	alice := s.register("alice", "Alice")
	first := s.submit(alice, 700, 100, "")
	second := s.submit(alice, 999, 1, "")

	s.True(second.Existing)
	s.Equal(first.Score.ID, second.Score.ID)
	s.Equal(700, second.Score.Score)
}

// Two devices signing in at once claim the anonymous row exactly once
func (s *IntegrationSuite) TestConcurrentClaimsOfOneRow() {
	alice := s.register("alice", "Alice")
	bob := s.register("bob", "Bob")
	anon := s.submit("", 600, 90, "")

	var wg sync.WaitGroup
	outcomes := make([]model.ClaimOutcome, 2)
	for i, p := range []model.PlayerID{alice, bob} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.app.Claims.Claim(s.ctx, anon.Score.ID, p)
			s.NoError(err)
			outcomes[i] = res.Outcome
		}()
	}
	wg.Wait()

	s.ElementsMatch([]model.ClaimOutcome{model.ClaimClaimed, model.ClaimConflict}, outcomes)
}

// A submission still committing is picked up by the retry loop
func (s *IntegrationSuite) TestReconcileWaitsForPendingSubmission() {
	alice := s.register("alice", "Alice")
	s.app.Pending.Begin("ref-late")

	var committed model.ScoreID
	s.app.MockClock.OnSleep = func(time.Duration) {
		if committed == "" {
			committed = s.submit("", 400, 500, "ref-late").Score.ID
		}
	}

	outcome := s.app.Reconciler.Reconcile(s.ctx, alice, &reconcile.LocalScore{
		ClientRef:   "ref-late",
		PuzzleDate:  today,
		Score:       400,
		TimeSeconds: 500,
	})
	claimed, ok := outcome.(reconcile.ClaimedAnonymous)
	s.Require().True(ok, "got %#v", outcome)
	s.Equal(committed, claimed.Score.ID)
	s.Equal([]time.Duration{time.Second}, s.app.MockClock.Sleeps())
}
