package storage

import (
	"context"

	"github.com/mcoot/crosswordgame-daily/internal/model"
)

// ScoreStorage persists daily puzzle scores.
//
// Every implementation upholds the same invariant: at most one row with a
// non-empty PlayerID exists per (PlayerID, PuzzleDate), whether the row was
// inserted already identified or acquired its owner through ClaimScore.
type ScoreStorage interface {
	// InsertScore stores a new row. If score.PlayerID is set and that player
	// already has a row for score.PuzzleDate, the existing row is returned with
	// existing=true and nothing is written.
	InsertScore(ctx context.Context, score *model.Score) (stored *model.Score, existing bool, err error)

	// GetScore returns the row with the given id or model.ErrScoreNotFound
	GetScore(ctx context.Context, id model.ScoreID) (*model.Score, error)

	// GetScoreForPlayer returns the player's row for date or model.ErrScoreNotFound
	GetScoreForPlayer(ctx context.Context, playerID model.PlayerID, date model.PuzzleDate) (*model.Score, error)

	// ClaimScore sets the row's owner to playerID only if the row is currently
	// anonymous and the player owns no other row for the same date. It reports
	// whether the row was updated; a missing row is not an error.
	ClaimScore(ctx context.Context, id model.ScoreID, playerID model.PlayerID) (bool, error)

	// CountClaimedAhead counts claimed rows on date that sort strictly before
	// (score, timeSeconds): higher score, or equal score and lower time.
	CountClaimedAhead(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) (int, error)

	// CountClaimedBelow counts claimed rows on date with a strictly lower score
	CountClaimedBelow(ctx context.Context, date model.PuzzleDate, score int) (int, error)

	// CountClaimed counts all claimed rows on date
	CountClaimed(ctx context.Context, date model.PuzzleDate) (int, error)

	// ListClaimed returns claimed rows on date ordered by score descending,
	// time ascending, id ascending, skipping offset rows and returning at most limit.
	ListClaimed(ctx context.Context, date model.PuzzleDate, offset, limit int) ([]*model.Score, error)
}

// PlayerStorage persists player profiles and credentials
type PlayerStorage interface {
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	// GetPlayers returns the profiles that exist among ids; missing ids are skipped
	GetPlayers(ctx context.Context, ids []model.PlayerID) (map[model.PlayerID]*model.Player, error)

	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)
}

// Storage defines the interface for all persistence operations
type Storage interface {
	ScoreStorage
	PlayerStorage

	// Close releases the backend's connections
	Close() error
}
