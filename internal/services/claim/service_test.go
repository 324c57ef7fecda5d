package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crosswordgame-daily/internal/metrics"
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
	"github.com/mcoot/crosswordgame-daily/internal/storage/memory"
	"github.com/mcoot/crosswordgame-daily/internal/testutil"
)

const day model.PuzzleDate = "2024-01-01"

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, metrics.New(prometheus.NewRegistry()), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) insert(id model.ScoreID, player model.PlayerID, date model.PuzzleDate, score int) {
	_, _, err := s.storage.InsertScore(s.ctx, &model.Score{
		ID: id, PlayerID: player, PuzzleDate: date, Score: score, TimeSeconds: 120,
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestClaimAnonymousRow() {
	s.insert("x", "", day, 800)

	result, err := s.service.Claim(s.ctx, "x", "p1")
	s.Require().NoError(err)
	s.Equal(model.ClaimClaimed, result.Outcome)
	s.Require().NotNil(result.Score)
	s.Equal(800, result.Score.Score)
	s.Equal(model.PlayerID("p1"), result.Score.PlayerID)

	owned, err := s.storage.GetScoreForPlayer(s.ctx, "p1", day)
	s.Require().NoError(err)
	s.Equal(model.ScoreID("x"), owned.ID)
}

func (s *ServiceSuite) TestClaimIsIdempotentForOwner() {
	s.insert("x", "", day, 800)

	first, err := s.service.Claim(s.ctx, "x", "p1")
	s.Require().NoError(err)
	second, err := s.service.Claim(s.ctx, "x", "p1")
	s.Require().NoError(err)

	s.Equal(model.ClaimClaimed, first.Outcome)
	s.Equal(model.ClaimAlreadyOwnedBySelf, second.Outcome)
	s.True(second.Outcome.Succeeded())
	s.Require().NotNil(second.Score)
	s.Equal(model.ScoreID("x"), second.Score.ID)

	count, err := s.storage.CountClaimed(s.ctx, day)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *ServiceSuite) TestClaimOwnedByAnotherPlayer() {
	s.insert("x", "", day, 800)
	_, err := s.service.Claim(s.ctx, "x", "p1")
	s.Require().NoError(err)

	result, err := s.service.Claim(s.ctx, "x", "p2")
	s.Require().NoError(err)
	s.Equal(model.ClaimConflict, result.Outcome)
	s.Nil(result.Score)

	row, err := s.storage.GetScore(s.ctx, "x")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), row.PlayerID)
}

func (s *ServiceSuite) TestClaimWhenPlayerAlreadyHasRowForDay() {
	s.insert("mine", "p1", day, 900)
	s.insert("x", "", day, 700)

	result, err := s.service.Claim(s.ctx, "x", "p1")
	s.Require().NoError(err)
	s.Equal(model.ClaimConflict, result.Outcome)

	row, err := s.storage.GetScore(s.ctx, "x")
	s.Require().NoError(err)
	s.False(row.IsClaimed())
}

func (s *ServiceSuite) TestClaimNotFound() {
	result, err := s.service.Claim(s.ctx, "missing", "p1")
	s.Require().NoError(err)
	s.Equal(model.ClaimNotFound, result.Outcome)

	result, err = s.service.Claim(s.ctx, "", "p1")
	s.Require().NoError(err)
	s.Equal(model.ClaimNotFound, result.Outcome)
}

func (s *ServiceSuite) TestConcurrentClaimsExactlyOneWins() {
	s.insert("x", "", day, 800)

	const n = 8
	var wg sync.WaitGroup
	outcomes := make([]model.ClaimOutcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := s.service.Claim(s.ctx, "x", model.PlayerID(fmt.Sprintf("p%d", i)))
			if err == nil {
				outcomes[i] = result.Outcome
			}
		}(i)
	}
	wg.Wait()

	claimed, conflicts := 0, 0
	for _, o := range outcomes {
		switch o {
		case model.ClaimClaimed:
			claimed++
		case model.ClaimConflict:
			conflicts++
		}
	}
	s.Equal(1, claimed)
	s.Equal(n-1, conflicts)
}

// errStorage fails every claim
type errStorage struct {
	*memory.Storage
}

func (errStorage) ClaimScore(context.Context, model.ScoreID, model.PlayerID) (bool, error) {
	return false, storage.Unavailable("claim", errors.New("i/o timeout"))
}

func TestClaimPropagatesStoreErrors(t *testing.T) {
	svc := New(errStorage{memory.New()}, nil, testutil.NopLogger())

	_, err := svc.Claim(context.Background(), "x", "p1")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

// unreadableAfterClaim claims successfully but fails the read back
type unreadableAfterClaim struct {
	*memory.Storage
}

func (unreadableAfterClaim) GetScore(context.Context, model.ScoreID) (*model.Score, error) {
	return nil, storage.Unavailable("get", errors.New("connection reset"))
}

func TestClaimCommittedEvenIfReadBackFails(t *testing.T) {
	store := unreadableAfterClaim{memory.New()}
	_, _, err := store.InsertScore(context.Background(), &model.Score{ID: "x", PuzzleDate: day, Score: 1})
	require.NoError(t, err)

	svc := New(store, nil, testutil.NopLogger())
	result, err := svc.Claim(context.Background(), "x", "p1")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimClaimed, result.Outcome)
	assert.Nil(t, result.Score)
}
