package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
)

// Score rows are HASHes; claimed rows are also members of a per-date
// leaderboard ZSET. Both writes that can make a row owned run as Lua
// scripts so the player/date index check and the writes are atomic.

var insertOwnedScript = redis.NewScript(`
local existing = redis.call('GET', KEYS[2])
if existing then
	return existing
end
redis.call('HSET', KEYS[1],
	'id', ARGV[1], 'player_id', ARGV[2], 'puzzle_date', ARGV[3],
	'score', ARGV[4], 'time_seconds', ARGV[5],
	'mistakes', ARGV[6], 'correct_placements', ARGV[7])
redis.call('SET', KEYS[2], ARGV[1])
redis.call('ZADD', KEYS[3], ARGV[8], ARGV[1])
return false
`)

var claimScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
local owner = redis.call('HGET', KEYS[1], 'player_id')
if owner and owner ~= '' then
	return 0
end
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'player_id', ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[2])
return 1
`)

// scoreRecord is the HASH layout of a score row
type scoreRecord struct {
	ID                string `redis:"id"`
	PlayerID          string `redis:"player_id"`
	PuzzleDate        string `redis:"puzzle_date"`
	Score             int    `redis:"score"`
	TimeSeconds       int    `redis:"time_seconds"`
	Mistakes          int    `redis:"mistakes"`
	CorrectPlacements int    `redis:"correct_placements"`
}

func (r *scoreRecord) toModel() *model.Score {
	return &model.Score{
		ID:                model.ScoreID(r.ID),
		PlayerID:          model.PlayerID(r.PlayerID),
		PuzzleDate:        model.PuzzleDate(r.PuzzleDate),
		Score:             r.Score,
		TimeSeconds:       r.TimeSeconds,
		Mistakes:          r.Mistakes,
		CorrectPlacements: r.CorrectPlacements,
	}
}

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, storage.Unavailable("redis ping", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Score operations

func (s *Storage) InsertScore(ctx context.Context, score *model.Score) (*model.Score, bool, error) {
	if !score.IsClaimed() {
		err := s.client.HSet(ctx, scoreKey(score.ID),
			"id", string(score.ID),
			"player_id", "",
			"puzzle_date", string(score.PuzzleDate),
			"score", score.Score,
			"time_seconds", score.TimeSeconds,
			"mistakes", score.Mistakes,
			"correct_placements", score.CorrectPlacements,
		).Err()
		if err != nil {
			return nil, false, storage.Unavailable("insert score", err)
		}
		stored := *score
		return &stored, false, nil
	}

	keys := []string{
		scoreKey(score.ID),
		playerDateIndexKey(score.PlayerID, score.PuzzleDate),
		leaderboardKey(score.PuzzleDate),
	}
	existingID, err := insertOwnedScript.Run(ctx, s.client, keys,
		string(score.ID), string(score.PlayerID), string(score.PuzzleDate),
		score.Score, score.TimeSeconds, score.Mistakes, score.CorrectPlacements,
		rankValue(score.Score, score.TimeSeconds),
	).Text()
	if errors.Is(err, redis.Nil) {
		stored := *score
		return &stored, false, nil
	}
	if err != nil {
		return nil, false, storage.Unavailable("insert score", err)
	}

	existing, err := s.GetScore(ctx, model.ScoreID(existingID))
	if err != nil {
		return nil, false, err
	}
	return existing, true, nil
}

func (s *Storage) GetScore(ctx context.Context, id model.ScoreID) (*model.Score, error) {
	res := s.client.HGetAll(ctx, scoreKey(id))
	if err := res.Err(); err != nil {
		return nil, storage.Unavailable("get score", err)
	}
	if len(res.Val()) == 0 {
		return nil, model.ErrScoreNotFound
	}

	var rec scoreRecord
	if err := res.Scan(&rec); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (s *Storage) GetScoreForPlayer(ctx context.Context, playerID model.PlayerID, date model.PuzzleDate) (*model.Score, error) {
	id, err := s.client.Get(ctx, playerDateIndexKey(playerID, date)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrScoreNotFound
		}
		return nil, storage.Unavailable("get score for player", err)
	}
	return s.GetScore(ctx, model.ScoreID(id))
}

func (s *Storage) ClaimScore(ctx context.Context, id model.ScoreID, playerID model.PlayerID) (bool, error) {
	// Date, score and time never change after insert, so the keys and sort
	// value can be derived before the script runs.
	row, err := s.GetScore(ctx, id)
	if errors.Is(err, model.ErrScoreNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if row.IsClaimed() {
		return false, nil
	}

	keys := []string{
		scoreKey(id),
		playerDateIndexKey(playerID, row.PuzzleDate),
		leaderboardKey(row.PuzzleDate),
	}
	updated, err := claimScript.Run(ctx, s.client, keys,
		string(playerID), string(id), rankValue(row.Score, row.TimeSeconds),
	).Int()
	if err != nil {
		return false, storage.Unavailable("claim score", err)
	}
	return updated == 1, nil
}

func (s *Storage) CountClaimedAhead(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) (int, error) {
	maxValue := "(" + strconv.FormatInt(rankValue(score, timeSeconds), 10)
	n, err := s.client.ZCount(ctx, leaderboardKey(date), "-inf", maxValue).Result()
	if err != nil {
		return 0, storage.Unavailable("count claimed ahead", err)
	}
	return int(n), nil
}

func (s *Storage) CountClaimedBelow(ctx context.Context, date model.PuzzleDate, score int) (int, error) {
	// Any row with a score below s has a value of at least rankValue(s-1, 0)
	minValue := strconv.FormatInt(rankValue(score-1, 0), 10)
	n, err := s.client.ZCount(ctx, leaderboardKey(date), minValue, "+inf").Result()
	if err != nil {
		return 0, storage.Unavailable("count claimed below", err)
	}
	return int(n), nil
}

func (s *Storage) CountClaimed(ctx context.Context, date model.PuzzleDate) (int, error) {
	n, err := s.client.ZCard(ctx, leaderboardKey(date)).Result()
	if err != nil {
		return 0, storage.Unavailable("count claimed", err)
	}
	return int(n), nil
}

func (s *Storage) ListClaimed(ctx context.Context, date model.PuzzleDate, offset, limit int) ([]*model.Score, error) {
	if limit <= 0 || offset < 0 {
		return []*model.Score{}, nil
	}

	ids, err := s.client.ZRange(ctx, leaderboardKey(date), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, storage.Unavailable("list claimed", err)
	}
	if len(ids) == 0 {
		return []*model.Score{}, nil
	}

	// Fetch all rows in one round trip
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, scoreKey(model.ScoreID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storage.Unavailable("list claimed", err)
	}

	rows := make([]*model.Score, 0, len(ids))
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			continue
		}
		var rec scoreRecord
		if err := cmd.Scan(&rec); err != nil {
			return nil, err
		}
		rows = append(rows, rec.toModel())
	}
	return rows, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return storage.Unavailable("save player", s.client.Set(ctx, playerKey(player.ID), data, 0).Err())
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, storage.Unavailable("get player", err)
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayers(ctx context.Context, ids []model.PlayerID) (map[model.PlayerID]*model.Player, error) {
	result := make(map[model.PlayerID]*model.Player, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = playerKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storage.Unavailable("get players", err)
	}

	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Missing player
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			continue // Skip invalid data
		}
		result[player.ID] = &player
	}
	return result, nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0)
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return storage.Unavailable("save registered player", err)
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	data, err := s.client.Get(ctx, registeredPlayerKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, storage.Unavailable("get registered player", err)
	}

	var rp model.RegisteredPlayer
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	// Look up player ID from username index
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, storage.Unavailable("get registered player by username", err)
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}
