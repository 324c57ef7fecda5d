// Package storagetest holds the behaviour every storage backend must share.
// Backends run it from their own tests with a constructor for a fresh store.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
)

const (
	day      model.PuzzleDate = "2024-01-01"
	otherDay model.PuzzleDate = "2024-01-02"
)

// Suite is the storage conformance suite
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store; it is called before every test
	NewStorage func(t *testing.T) storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Store = s.NewStorage(s.T())
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func (s *Suite) insert(id string, player model.PlayerID, date model.PuzzleDate, score, timeSeconds int) *model.Score {
	stored, existing, err := s.Store.InsertScore(s.Ctx, &model.Score{
		ID:                model.ScoreID(id),
		PlayerID:          player,
		PuzzleDate:        date,
		Score:             score,
		TimeSeconds:       timeSeconds,
		Mistakes:          2,
		CorrectPlacements: 18,
	})
	s.Require().NoError(err)
	s.Require().False(existing, "unexpected existing row for %s", id)
	return stored
}

// Insert tests

func (s *Suite) TestInsertAnonymousScore() {
	stored := s.insert("s1", "", day, 800, 120)
	s.Equal(model.ScoreID("s1"), stored.ID)
	s.False(stored.IsClaimed())

	got, err := s.Store.GetScore(s.Ctx, "s1")
	s.Require().NoError(err)
	s.Equal(day, got.PuzzleDate)
	s.Equal(800, got.Score)
	s.Equal(120, got.TimeSeconds)
	s.Equal(2, got.Mistakes)
	s.Equal(18, got.CorrectPlacements)
	s.Equal(model.PlayerID(""), got.PlayerID)
}

func (s *Suite) TestInsertManyAnonymousScoresSameDay() {
	s.insert("s1", "", day, 800, 120)
	s.insert("s2", "", day, 800, 120)
	s.insert("s3", "", day, 700, 100)

	count, err := s.Store.CountClaimed(s.Ctx, day)
	s.Require().NoError(err)
	s.Equal(0, count, "anonymous rows are never counted as claimed")
}

func (s *Suite) TestInsertIdentifiedScoreIsIdempotentPerDay() {
	first := s.insert("s1", "p1", day, 900, 100)

	stored, existing, err := s.Store.InsertScore(s.Ctx, &model.Score{
		ID: "s2", PlayerID: "p1", PuzzleDate: day, Score: 300, TimeSeconds: 50,
	})
	s.Require().NoError(err)
	s.True(existing)
	s.Equal(first.ID, stored.ID)
	s.Equal(900, stored.Score)

	_, err = s.Store.GetScore(s.Ctx, "s2")
	s.ErrorIs(err, model.ErrScoreNotFound, "the retried submission must not create a row")
}

func (s *Suite) TestInsertIdentifiedScoreOnDifferentDays() {
	s.insert("s1", "p1", day, 900, 100)
	s.insert("s2", "p1", otherDay, 500, 100)

	got, err := s.Store.GetScoreForPlayer(s.Ctx, "p1", otherDay)
	s.Require().NoError(err)
	s.Equal(model.ScoreID("s2"), got.ID)
}

func (s *Suite) TestConcurrentInsertsForSamePlayerCreateOneRow() {
	const n = 10
	var wg sync.WaitGroup
	ids := make([]model.ScoreID, n)
	created := make([]bool, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, existing, err := s.Store.InsertScore(s.Ctx, &model.Score{
				ID: model.ScoreID(fmt.Sprintf("s%d", i)), PlayerID: "p1", PuzzleDate: day, Score: 500 + i, TimeSeconds: 60,
			})
			errs[i] = err
			if err == nil {
				ids[i] = stored.ID
				created[i] = !existing
			}
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for i := 0; i < n; i++ {
		s.Require().NoError(errs[i])
		if created[i] {
			createdCount++
		}
		s.Equal(ids[0], ids[i], "every caller must see the same row")
	}
	s.Equal(1, createdCount)

	count, err := s.Store.CountClaimed(s.Ctx, day)
	s.Require().NoError(err)
	s.Equal(1, count)
}

// Read tests

func (s *Suite) TestGetScoreNotFound() {
	_, err := s.Store.GetScore(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *Suite) TestGetScoreForPlayerNotFound() {
	s.insert("s1", "p1", day, 900, 100)

	_, err := s.Store.GetScoreForPlayer(s.Ctx, "p1", otherDay)
	s.ErrorIs(err, model.ErrScoreNotFound)

	_, err = s.Store.GetScoreForPlayer(s.Ctx, "p2", day)
	s.ErrorIs(err, model.ErrScoreNotFound)
}

// Claim tests

func (s *Suite) TestClaimAnonymousScore() {
	s.insert("s1", "", day, 800, 120)

	updated, err := s.Store.ClaimScore(s.Ctx, "s1", "p1")
	s.Require().NoError(err)
	s.True(updated)

	got, err := s.Store.GetScoreForPlayer(s.Ctx, "p1", day)
	s.Require().NoError(err)
	s.Equal(model.ScoreID("s1"), got.ID)
	s.Equal(800, got.Score)
	s.Equal(model.PlayerID("p1"), got.PlayerID)
}

func (s *Suite) TestClaimIsOneShot() {
	s.insert("s1", "", day, 800, 120)

	updated, err := s.Store.ClaimScore(s.Ctx, "s1", "p1")
	s.Require().NoError(err)
	s.True(updated)

	updated, err = s.Store.ClaimScore(s.Ctx, "s1", "p1")
	s.Require().NoError(err)
	s.False(updated, "re-claiming an owned row changes nothing")

	updated, err = s.Store.ClaimScore(s.Ctx, "s1", "p2")
	s.Require().NoError(err)
	s.False(updated)

	got, err := s.Store.GetScore(s.Ctx, "s1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), got.PlayerID, "ownership is never reassigned")
}

func (s *Suite) TestClaimMissingScore() {
	updated, err := s.Store.ClaimScore(s.Ctx, "missing", "p1")
	s.Require().NoError(err)
	s.False(updated)
}

func (s *Suite) TestClaimRefusedWhenPlayerAlreadyOwnsRowForDay() {
	s.insert("owned", "p1", day, 900, 100)
	s.insert("anon", "", day, 700, 100)

	updated, err := s.Store.ClaimScore(s.Ctx, "anon", "p1")
	s.Require().NoError(err)
	s.False(updated)

	got, err := s.Store.GetScore(s.Ctx, "anon")
	s.Require().NoError(err)
	s.False(got.IsClaimed())

	count, err := s.Store.CountClaimed(s.Ctx, day)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestClaimAllowedForDifferentDay() {
	s.insert("owned", "p1", day, 900, 100)
	s.insert("anon", "", otherDay, 700, 100)

	updated, err := s.Store.ClaimScore(s.Ctx, "anon", "p1")
	s.Require().NoError(err)
	s.True(updated)
}

func (s *Suite) TestConcurrentClaimsExactlyOneWins() {
	s.insert("s1", "", day, 800, 120)

	const n = 10
	var wg sync.WaitGroup
	results := make([]bool, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Store.ClaimScore(s.Ctx, "s1", model.PlayerID(fmt.Sprintf("p%d", i)))
		}(i)
	}
	wg.Wait()

	winners := 0
	winner := -1
	for i := 0; i < n; i++ {
		s.Require().NoError(errs[i])
		if results[i] {
			winners++
			winner = i
		}
	}
	s.Require().Equal(1, winners)

	got, err := s.Store.GetScore(s.Ctx, "s1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID(fmt.Sprintf("p%d", winner)), got.PlayerID)
}

// Count tests

func (s *Suite) seedDay() {
	s.insert("a", "pa", day, 900, 100)
	s.insert("b", "pb", day, 500, 60)
	s.insert("c", "pc", day, 500, 90)
	s.insert("d", "pd", day, 300, 30)
	s.insert("anon", "", day, 1000, 1)
	s.insert("other", "pe", otherDay, 1000, 1)
}

func (s *Suite) TestCountClaimed() {
	s.seedDay()

	count, err := s.Store.CountClaimed(s.Ctx, day)
	s.Require().NoError(err)
	s.Equal(4, count)

	count, err = s.Store.CountClaimed(s.Ctx, "2030-01-01")
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *Suite) TestCountClaimedAhead() {
	s.seedDay()

	tests := []struct {
		score, time, want int
	}{
		{1000, 0, 0},
		{900, 100, 0},
		{900, 101, 1},
		{600, 10, 1},
		{500, 60, 1},
		{500, 61, 2},
		{500, 90, 2},
		{500, 91, 3},
		{300, 30, 3},
		{0, 0, 4},
	}
	for _, tt := range tests {
		got, err := s.Store.CountClaimedAhead(s.Ctx, day, tt.score, tt.time)
		s.Require().NoError(err)
		s.Equal(tt.want, got, "ahead of (%d,%d)", tt.score, tt.time)
	}
}

func (s *Suite) TestCountClaimedBelow() {
	s.seedDay()

	tests := []struct {
		score, want int
	}{
		{0, 0},
		{300, 0},
		{301, 1},
		{500, 1},
		{501, 3},
		{900, 3},
		{1000, 4},
	}
	for _, tt := range tests {
		got, err := s.Store.CountClaimedBelow(s.Ctx, day, tt.score)
		s.Require().NoError(err)
		s.Equal(tt.want, got, "below %d", tt.score)
	}
}

func (s *Suite) TestCountsIncludeClaimedRows() {
	s.insert("anon", "", day, 700, 50)

	count, err := s.Store.CountClaimed(s.Ctx, day)
	s.Require().NoError(err)
	s.Equal(0, count)

	_, err = s.Store.ClaimScore(s.Ctx, "anon", "p1")
	s.Require().NoError(err)

	count, err = s.Store.CountClaimed(s.Ctx, day)
	s.Require().NoError(err)
	s.Equal(1, count)

	ahead, err := s.Store.CountClaimedAhead(s.Ctx, day, 600, 10)
	s.Require().NoError(err)
	s.Equal(1, ahead)
}

// List tests

func (s *Suite) TestListClaimedOrdering() {
	s.seedDay()
	s.insert("e", "pf", day, 500, 60) // ties with "b" on score and time

	rows, err := s.Store.ListClaimed(s.Ctx, day, 0, 100)
	s.Require().NoError(err)

	var got []model.ScoreID
	for _, r := range rows {
		got = append(got, r.ID)
	}
	s.Equal([]model.ScoreID{"a", "b", "e", "c", "d"}, got)
	for _, r := range rows {
		s.True(r.IsClaimed())
		s.Equal(day, r.PuzzleDate)
	}
}

func (s *Suite) TestListClaimedPagination() {
	s.seedDay()

	first, err := s.Store.ListClaimed(s.Ctx, day, 0, 2)
	s.Require().NoError(err)
	s.Require().Len(first, 2)
	s.Equal(model.ScoreID("a"), first[0].ID)
	s.Equal(model.ScoreID("b"), first[1].ID)

	second, err := s.Store.ListClaimed(s.Ctx, day, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(second, 2)
	s.Equal(model.ScoreID("c"), second[0].ID)
	s.Equal(model.ScoreID("d"), second[1].ID)

	beyond, err := s.Store.ListClaimed(s.Ctx, day, 10, 2)
	s.Require().NoError(err)
	s.Empty(beyond)
}

func (s *Suite) TestListClaimedEmptyDay() {
	rows, err := s.Store.ListClaimed(s.Ctx, "2030-01-01", 0, 10)
	s.Require().NoError(err)
	s.Empty(rows)
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		DisplayName: "Alice",
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	err := s.Store.SavePlayer(s.Ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.DisplayName, retrieved.DisplayName)
	s.True(player.CreatedAt.Equal(retrieved.CreatedAt))
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestGetPlayersSkipsMissing() {
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "p1", DisplayName: "Alice"}))
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "p2", DisplayName: "Bob"}))

	players, err := s.Store.GetPlayers(s.Ctx, []model.PlayerID{"p1", "p2", "ghost"})
	s.Require().NoError(err)
	s.Len(players, 2)
	s.Equal("Alice", players["p1"].DisplayName)
	s.Equal("Bob", players["p2"].DisplayName)

	empty, err := s.Store.GetPlayers(s.Ctx, nil)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *Suite) TestSaveAndGetRegisteredPlayer() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	err := s.Store.SaveRegisteredPlayer(s.Ctx, rp)
	s.Require().NoError(err)

	retrieved, err := s.Store.GetRegisteredPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(rp.Username, retrieved.Username)
	s.Equal(rp.PasswordHash, retrieved.PasswordHash)

	byName, err := s.Store.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), byName.PlayerID)
}

func (s *Suite) TestGetRegisteredPlayerNotFound() {
	_, err := s.Store.GetRegisteredPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.Store.GetRegisteredPlayerByUsername(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}
