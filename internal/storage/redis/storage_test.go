package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
	"github.com/mcoot/crosswordgame-daily/internal/storage/storagetest"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mini.Addr(),
	})
	return NewWithClient(client, DefaultConfig()), mini
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage {
			s, _ := newTestStorage(t)
			return s
		},
	})
}

func TestRankValueOrdering(t *testing.T) {
	tests := []struct {
		name          string
		aScore, aTime int
		bScore, bTime int
	}{
		{"higher score first", 900, 500, 800, 1},
		{"faster time breaks ties", 500, 10, 500, 11},
		{"max time still below next score", 501, model.MaxTimeSeconds, 500, 0},
		{"zero score", 1, model.MaxTimeSeconds, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Less(t, rankValue(tt.aScore, tt.aTime), rankValue(tt.bScore, tt.bTime))
		})
	}
}

func TestClaimedRowJoinsLeaderboard(t *testing.T) {
	s, mini := newTestStorage(t)
	ctx := context.Background()

	_, _, err := s.InsertScore(ctx, &model.Score{ID: "s1", PuzzleDate: "2024-01-01", Score: 700, TimeSeconds: 42})
	require.NoError(t, err)
	assert.False(t, mini.Exists(leaderboardKey("2024-01-01")), "anonymous rows stay off the leaderboard")

	updated, err := s.ClaimScore(ctx, "s1", "p1")
	require.NoError(t, err)
	require.True(t, updated)

	members, err := mini.ZMembers(leaderboardKey("2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, members)

	score, err := mini.ZScore(leaderboardKey("2024-01-01"), "s1")
	require.NoError(t, err)
	assert.Equal(t, float64(rankValue(700, 42)), score)

	id, err := mini.Get(playerDateIndexKey("p1", "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
	assert.Equal(t, "p1", mini.HGet(scoreKey("s1"), "player_id"))
}

func TestUnavailableServer(t *testing.T) {
	s, mini := newTestStorage(t)
	ctx := context.Background()
	mini.Close()

	_, _, err := s.InsertScore(ctx, &model.Score{ID: "s1", PlayerID: "p1", PuzzleDate: "2024-01-01", Score: 1})
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = s.ClaimScore(ctx, "s1", "p1")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = s.CountClaimedAhead(ctx, "2024-01-01", 1, 1)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = s.GetScoreForPlayer(ctx, "p1", "2024-01-01")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}
