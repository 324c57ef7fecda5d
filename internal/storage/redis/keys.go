package redis

import (
	"fmt"

	"github.com/mcoot/crosswordgame-daily/internal/model"
)

// Key prefix for all daily puzzle data
const keyPrefix = "cwdaily"

// rankScale separates score from time in a leaderboard sort value.
// It must exceed model.MaxTimeSeconds.
const rankScale = model.MaxTimeSeconds + 1

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// scoreKey returns the Redis key for the HASH holding a score row
func scoreKey(id model.ScoreID) string {
	return fmt.Sprintf("%s:score:%s", keyPrefix, id)
}

// playerDateIndexKey returns the Redis key for the (player, date) -> score_id index.
// Its existence is what enforces one owned row per player per day.
func playerDateIndexKey(playerID model.PlayerID, date model.PuzzleDate) string {
	return fmt.Sprintf("%s:idx:player_date:%s:%s", keyPrefix, playerID, date)
}

// leaderboardKey returns the Redis key for the ZSET of claimed score ids on a date
func leaderboardKey(date model.PuzzleDate) string {
	return fmt.Sprintf("%s:leaderboard:%s", keyPrefix, date)
}

// rankValue packs (score, time) so that ascending ZSET order is
// score descending then time ascending. Equal values fall back to
// member order, which is the score id.
func rankValue(score, timeSeconds int) int64 {
	return int64(timeSeconds) - int64(score)*rankScale
}
