package request

import (
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/reconcile"
)

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in. LocalScore is the
// anonymous score the client played before signing in, if any.
type LoginRequest struct {
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	LocalScore *LocalScore `json:"local_score,omitempty"`
}

// LocalScore is a client's record of an anonymous submission
type LocalScore struct {
	ScoreID           string `json:"score_id,omitempty"`
	ClientRef         string `json:"client_ref,omitempty"`
	Date              string `json:"date,omitempty"`
	Score             int    `json:"score"`
	TimeSeconds       int    `json:"time_seconds"`
	Mistakes          int    `json:"mistakes"`
	CorrectPlacements int    `json:"correct_placements"`
}

// ToReconcile converts to the coordinator's form; nil stays nil
func (l *LocalScore) ToReconcile() *reconcile.LocalScore {
	if l == nil {
		return nil
	}
	return &reconcile.LocalScore{
		ScoreID:           model.ScoreID(l.ScoreID),
		ClientRef:         l.ClientRef,
		PuzzleDate:        model.PuzzleDate(l.Date),
		Score:             l.Score,
		TimeSeconds:       l.TimeSeconds,
		Mistakes:          l.Mistakes,
		CorrectPlacements: l.CorrectPlacements,
	}
}

// SubmitScoreRequest is the request body for submitting a score.
// Score and TimeSeconds are required; Date defaults to today.
type SubmitScoreRequest struct {
	Date              string `json:"date,omitempty"`
	Score             *int   `json:"score"`
	TimeSeconds       *int   `json:"time_seconds"`
	Mistakes          int    `json:"mistakes"`
	CorrectPlacements int    `json:"correct_placements"`
	ClientRef         string `json:"client_ref,omitempty"`
}

// ReconcileRequest is the request body for reconciling a signed-in session
type ReconcileRequest struct {
	LocalScore *LocalScore `json:"local_score,omitempty"`
}
