package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
	"github.com/mcoot/crosswordgame-daily/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(*testing.T) storage.Storage { return New() },
	})
}

func TestReturnedScoresAreCopies(t *testing.T) {
	s := New()
	ctx := t.Context()

	stored, _, err := s.InsertScore(ctx, &model.Score{ID: "s1", PuzzleDate: "2024-01-01", Score: 100})
	if err != nil {
		t.Fatal(err)
	}
	stored.PlayerID = "intruder"

	got, err := s.GetScore(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.IsClaimed() {
		t.Fatalf("mutating a returned score must not change storage, got owner %q", got.PlayerID)
	}
}
