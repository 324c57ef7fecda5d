package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
	"github.com/mcoot/crosswordgame-daily/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage {
			s, err := Open(filepath.Join(t.TempDir(), "scores.db"))
			require.NoError(t, err)
			return s
		},
	})
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, _, err = s.InsertScore(ctx, &model.Score{ID: "s1", PlayerID: "p1", PuzzleDate: "2024-01-01", Score: 400, TimeSeconds: 30})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetScoreForPlayer(ctx, "p1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, model.ScoreID("s1"), got.ID)
	assert.Equal(t, 400, got.Score)
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.CountClaimed(context.Background(), "2024-01-01")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}
