package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
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
	ranker := ranking.New(s.storage, nil, testutil.NopLogger())
	s.service = New(s.storage, ranker, testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

func (s *ServiceSuite) addPlayer(n, score, timeSeconds int) {
	id := model.PlayerID(fmt.Sprintf("p%03d", n))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{
		ID:          id,
		DisplayName: fmt.Sprintf("Player %d", n),
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	_, _, err := s.storage.InsertScore(s.ctx, &model.Score{
		ID:          model.ScoreID(fmt.Sprintf("s%03d", n)),
		PlayerID:    id,
		PuzzleDate:  day,
		Score:       score,
		TimeSeconds: timeSeconds,
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) seed(n int) {
	for i := 1; i <= n; i++ {
		s.addPlayer(i, (i*97)%1001, (i*31)%300)
	}
}

// Page tests

func (s *ServiceSuite) TestEmptyDay() {
	page, err := s.service.Page(s.ctx, day, 0, 10)
	s.Require().NoError(err)
	s.Empty(page.Entries)
	s.False(page.HasMore)
	s.Equal(0, page.NextFrom)
	s.Equal(day, page.Date)
}

func (s *ServiceSuite) TestPageOrderingAndRanks() {
	s.addPlayer(1, 500, 90)
	s.addPlayer(2, 900, 100)
	s.addPlayer(3, 500, 60)

	page, err := s.service.Page(s.ctx, day, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 3)

	s.Equal(model.PlayerID("p002"), page.Entries[0].Score.PlayerID)
	s.Equal(model.PlayerID("p003"), page.Entries[1].Score.PlayerID)
	s.Equal(model.PlayerID("p001"), page.Entries[2].Score.PlayerID)
	for i, e := range page.Entries {
		s.Equal(i+1, e.Rank)
	}
	s.Equal("Player 2", page.Entries[0].DisplayName)
	s.False(page.HasMore)
	s.Equal(3, page.NextFrom)
}

func (s *ServiceSuite) TestHasMoreAndNextFrom() {
	s.seed(7)

	first, err := s.service.Page(s.ctx, day, 0, 3)
	s.Require().NoError(err)
	s.Len(first.Entries, 3)
	s.True(first.HasMore)
	s.Equal(3, first.NextFrom)

	second, err := s.service.Page(s.ctx, day, first.NextFrom, 3)
	s.Require().NoError(err)
	s.Len(second.Entries, 3)
	s.True(second.HasMore)
	s.Equal(4, second.Entries[0].Rank)

	third, err := s.service.Page(s.ctx, day, second.NextFrom, 3)
	s.Require().NoError(err)
	s.Len(third.Entries, 1)
	s.False(third.HasMore)
	s.Equal(7, third.NextFrom)
	s.Equal(7, third.Entries[0].Rank)
}

func (s *ServiceSuite) TestExactlyFullPageHasNoMore() {
	s.seed(4)

	page, err := s.service.Page(s.ctx, day, 0, 4)
	s.Require().NoError(err)
	s.Len(page.Entries, 4)
	s.False(page.HasMore)
}

func (s *ServiceSuite) TestPagesConcatenateToFullOrder() {
	s.seed(120)

	full, err := s.service.Page(s.ctx, day, 0, 10000)
	s.Require().NoError(err)
	s.Require().Len(full.Entries, 120)

	var joined []model.LeaderboardEntry
	from := 0
	for {
		page, err := s.service.Page(s.ctx, day, from, 50)
		s.Require().NoError(err)
		joined = append(joined, page.Entries...)
		if !page.HasMore {
			break
		}
		from = page.NextFrom
	}

	s.Equal(full.Entries, joined)
}

func (s *ServiceSuite) TestRanksMatchRankCalculator() {
	s.seed(30)
	ranker := ranking.New(s.storage, nil, testutil.NopLogger())

	page, err := s.service.Page(s.ctx, day, 0, 30)
	s.Require().NoError(err)
	for _, e := range page.Entries {
		rank, err := ranker.Rank(s.ctx, day, e.Score.Score, e.Score.TimeSeconds)
		s.Require().NoError(err)
		s.LessOrEqual(rank, e.Rank, "calculated rank never exceeds position")
	}
}

func (s *ServiceSuite) TestAnonymousRowsExcluded() {
	s.addPlayer(1, 300, 10)
	_, _, err := s.storage.InsertScore(s.ctx, &model.Score{ID: "anon", PuzzleDate: day, Score: 1000})
	s.Require().NoError(err)

	page, err := s.service.Page(s.ctx, day, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Equal(model.ScoreID("s001"), page.Entries[0].Score.ID)
}

func (s *ServiceSuite) TestMissingProfileLeavesNameEmpty() {
	_, _, err := s.storage.InsertScore(s.ctx, &model.Score{ID: "x", PlayerID: "ghost", PuzzleDate: day, Score: 10})
	s.Require().NoError(err)

	page, err := s.service.Page(s.ctx, day, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Empty(page.Entries[0].DisplayName)
}

func (s *ServiceSuite) TestInvalidPageRequests() {
	tests := []struct {
		name           string
		from, pageSize int
	}{
		{"negative from", -1, 10},
		{"zero page size", 0, 0},
		{"page size too large", 0, 10001},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Page(s.ctx, day, tt.from, tt.pageSize)
			s.ErrorIs(err, model.ErrInvalidPage)
		})
	}

	_, err := s.service.Page(s.ctx, "bad", 0, 10)
	s.ErrorIs(err, model.ErrInvalidDate)
}

func (s *ServiceSuite) TestIncludes() {
	s.seed(5)

	page, err := s.service.Page(s.ctx, day, 0, 2)
	s.Require().NoError(err)

	s.True(page.Includes(page.Entries[0].Score.PlayerID))
	s.False(page.Includes("nobody"))
	s.False(page.Includes(""))
}

// PlayerStanding tests

func (s *ServiceSuite) TestPlayerStanding() {
	s.addPlayer(1, 900, 10)
	s.addPlayer(2, 800, 10)
	s.addPlayer(3, 700, 10)

	standing, err := s.service.PlayerStanding(s.ctx, day, "p003")
	s.Require().NoError(err)
	s.Equal(3, standing.Entry.Rank)
	s.Equal("Player 3", standing.Entry.DisplayName)
	s.Equal(700, standing.Entry.Score.Score)
	s.Equal(0, standing.Percentile)
}

func (s *ServiceSuite) TestPlayerStandingNotPlayed() {
	_, err := s.service.PlayerStanding(s.ctx, day, "p999")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

// duplicateStorage returns the same player twice, which a consistent store never does
type duplicateStorage struct {
	*memory.Storage
}

func (duplicateStorage) ListClaimed(_ context.Context, date model.PuzzleDate, offset, limit int) ([]*model.Score, error) {
	rows := []*model.Score{
		{ID: "a", PlayerID: "p1", PuzzleDate: date, Score: 900},
		{ID: "b", PlayerID: "p1", PuzzleDate: date, Score: 800},
		{ID: "c", PlayerID: "p2", PuzzleDate: date, Score: 700},
	}
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func TestPageDeduplicatesPlayers(t *testing.T) {
	store := duplicateStorage{memory.New()}
	svc := New(store, ranking.New(store, nil, testutil.NopLogger()), testutil.NopLogger(), DefaultConfig())

	page, err := svc.Page(context.Background(), day, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)

	assert.Equal(t, model.ScoreID("a"), page.Entries[0].Score.ID, "best row kept")
	assert.Equal(t, 1, page.Entries[0].Rank)
	assert.Equal(t, model.ScoreID("c"), page.Entries[1].Score.ID)
	assert.Equal(t, 3, page.Entries[1].Rank, "rank is absolute position")
	assert.Equal(t, 3, page.NextFrom)

	// A skipped row still uses a slot, so the page comes back short
	page, err = svc.Page(context.Background(), day, 0, 2)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.True(t, page.HasMore)
	assert.Equal(t, 2, page.NextFrom)
}

type failingList struct {
	*memory.Storage
}

func (failingList) ListClaimed(context.Context, model.PuzzleDate, int, int) ([]*model.Score, error) {
	return nil, storage.Unavailable("list", errors.New("connection reset"))
}

func TestPagePropagatesStoreErrors(t *testing.T) {
	store := failingList{memory.New()}
	svc := New(store, ranking.New(store, nil, testutil.NopLogger()), testutil.NopLogger(), DefaultConfig())

	_, err := svc.Page(context.Background(), day, 0, 10)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestConfiguredMaxPageSize(t *testing.T) {
	store := memory.New()
	svc := New(store, ranking.New(store, nil, testutil.NopLogger()), testutil.NopLogger(), Config{MaxPageSize: 5})

	assert.Equal(t, 5, svc.MaxPageSize())
	_, err := svc.Page(context.Background(), day, 0, 6)
	assert.ErrorIs(t, err, model.ErrInvalidPage)
}
