package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player is the public profile of an authenticated player.
// Only DisplayName is read by ranking and leaderboard views.
type Player struct {
	ID          PlayerID
	DisplayName string
	CreatedAt   time.Time
}

// RegisteredPlayer holds authentication data for a Player
// Stored separately for security (password never in memory with session)
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
