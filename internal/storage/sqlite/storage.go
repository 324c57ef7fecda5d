// Package sqlite stores scores and players in a local SQLite file for
// single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - A single connection, so writes are serialised
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storage.Unavailable("connect sqlite", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Storage{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

const scoreColumns = `id, COALESCE(player_id, ''), puzzle_date, score, time_seconds, mistakes, correct_placements`

type scanner interface {
	Scan(dest ...any) error
}

func scanScore(row scanner) (*model.Score, error) {
	var sc model.Score
	err := row.Scan(&sc.ID, &sc.PlayerID, &sc.PuzzleDate, &sc.Score, &sc.TimeSeconds, &sc.Mistakes, &sc.CorrectPlacements)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrScoreNotFound
		}
		return nil, err
	}
	return &sc, nil
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, score *model.Score) (*model.Score, bool, error) {
	const q = `
		INSERT INTO scores (id, player_id, puzzle_date, score, time_seconds, mistakes, correct_placements)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, puzzle_date) WHERE player_id IS NOT NULL DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, q,
		string(score.ID), string(score.PlayerID), string(score.PuzzleDate),
		score.Score, score.TimeSeconds, score.Mistakes, score.CorrectPlacements,
	)
	if err != nil {
		return nil, false, storage.Unavailable("insert score", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, storage.Unavailable("insert score", err)
	}
	if n == 1 {
		stored := *score
		return &stored, false, nil
	}

	existing, err := s.GetScoreForPlayer(ctx, score.PlayerID, score.PuzzleDate)
	if err != nil {
		return nil, false, err
	}
	return existing, true, nil
}

func (s *Storage) GetScore(ctx context.Context, id model.ScoreID) (*model.Score, error) {
	q := `SELECT ` + scoreColumns + ` FROM scores WHERE id = ?`
	sc, err := scanScore(s.db.QueryRowContext(ctx, q, string(id)))
	return sc, storage.Unavailable("get score", err)
}

func (s *Storage) GetScoreForPlayer(ctx context.Context, playerID model.PlayerID, date model.PuzzleDate) (*model.Score, error) {
	q := `SELECT ` + scoreColumns + ` FROM scores WHERE player_id = ? AND puzzle_date = ?`
	sc, err := scanScore(s.db.QueryRowContext(ctx, q, string(playerID), string(date)))
	return sc, storage.Unavailable("get score for player", err)
}

func (s *Storage) ClaimScore(ctx context.Context, id model.ScoreID, playerID model.PlayerID) (bool, error) {
	const q = `UPDATE scores SET player_id = ? WHERE id = ? AND player_id IS NULL`
	res, err := s.db.ExecContext(ctx, q, string(playerID), string(id))
	if err != nil {
		if isUniqueViolation(err) {
			// The player already owns a row for this date
			return false, nil
		}
		return false, storage.Unavailable("claim score", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storage.Unavailable("claim score", err)
	}
	return n == 1, nil
}

func (s *Storage) count(ctx context.Context, op, q string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, storage.Unavailable(op, err)
	}
	return n, nil
}

func (s *Storage) CountClaimedAhead(ctx context.Context, date model.PuzzleDate, score, timeSeconds int) (int, error) {
	const q = `
		SELECT COUNT(*) FROM scores
		WHERE puzzle_date = ? AND player_id IS NOT NULL
		  AND (score > ? OR (score = ? AND time_seconds < ?))
	`
	return s.count(ctx, "count claimed ahead", q, string(date), score, score, timeSeconds)
}

func (s *Storage) CountClaimedBelow(ctx context.Context, date model.PuzzleDate, score int) (int, error) {
	const q = `SELECT COUNT(*) FROM scores WHERE puzzle_date = ? AND player_id IS NOT NULL AND score < ?`
	return s.count(ctx, "count claimed below", q, string(date), score)
}

func (s *Storage) CountClaimed(ctx context.Context, date model.PuzzleDate) (int, error) {
	const q = `SELECT COUNT(*) FROM scores WHERE puzzle_date = ? AND player_id IS NOT NULL`
	return s.count(ctx, "count claimed", q, string(date))
}

func (s *Storage) ListClaimed(ctx context.Context, date model.PuzzleDate, offset, limit int) ([]*model.Score, error) {
	if limit <= 0 || offset < 0 {
		return []*model.Score{}, nil
	}

	q := `SELECT ` + scoreColumns + ` FROM scores
		WHERE puzzle_date = ? AND player_id IS NOT NULL
		ORDER BY score DESC, time_seconds ASC, id ASC
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, string(date), limit, offset)
	if err != nil {
		return nil, storage.Unavailable("list claimed", err)
	}
	defer rows.Close()

	result := make([]*model.Score, 0, limit)
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, storage.Unavailable("list claimed", err)
		}
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("list claimed", err)
	}
	return result, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	const q = `
		INSERT INTO players (id, display_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name
	`
	_, err := s.db.ExecContext(ctx, q, string(player.ID), player.DisplayName, player.CreatedAt)
	return storage.Unavailable("save player", err)
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	const q = `SELECT id, display_name, created_at FROM players WHERE id = ?`
	var p model.Player
	if err := s.db.QueryRowContext(ctx, q, string(id)).Scan(&p.ID, &p.DisplayName, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, storage.Unavailable("get player", err)
	}
	return &p, nil
}

func (s *Storage) GetPlayers(ctx context.Context, ids []model.PlayerID) (map[model.PlayerID]*model.Player, error) {
	result := make(map[model.PlayerID]*model.Player, len(ids))
	for _, id := range ids {
		p, err := s.GetPlayer(ctx, id)
		if errors.Is(err, model.ErrPlayerNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[id] = p
	}
	return result, nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	const q = `
		INSERT INTO registered_players (player_id, username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET
			password_hash = excluded.password_hash,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, q, string(rp.PlayerID), rp.Username, rp.PasswordHash, rp.CreatedAt, rp.UpdatedAt)
	return storage.Unavailable("save registered player", err)
}

const registeredPlayerColumns = `player_id, username, password_hash, created_at, updated_at`

func scanRegisteredPlayer(row scanner) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	if err := row.Scan(&rp.PlayerID, &rp.Username, &rp.PasswordHash, &rp.CreatedAt, &rp.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	q := `SELECT ` + registeredPlayerColumns + ` FROM registered_players WHERE player_id = ?`
	rp, err := scanRegisteredPlayer(s.db.QueryRowContext(ctx, q, string(playerID)))
	return rp, storage.Unavailable("get registered player", err)
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	q := `SELECT ` + registeredPlayerColumns + ` FROM registered_players WHERE username = ?`
	rp, err := scanRegisteredPlayer(s.db.QueryRowContext(ctx, q, username))
	return rp, storage.Unavailable("get registered player by username", err)
}
