package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Score errors
	ErrScoreNotFound = errors.New("score not found")
	ErrInvalidScore  = errors.New("invalid score")
	ErrInvalidDate   = errors.New("invalid puzzle date")

	// Leaderboard errors
	ErrInvalidPage = errors.New("invalid leaderboard page")

	// Store errors. Operations that fail with this error are safe to retry:
	// inserts are idempotent for identified players and claims are conditional.
	ErrStoreUnavailable = errors.New("score store unavailable")
)
