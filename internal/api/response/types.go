package response

import (
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/auth"
	"github.com/mcoot/crosswordgame-daily/internal/services/leaderboard"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
	"github.com/mcoot/crosswordgame-daily/internal/services/reconcile"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player         Player          `json:"player"`
	SessionToken   string          `json:"session_token"`
	Reconciliation *Reconciliation `json:"reconciliation,omitempty"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Score represents a stored score
type Score struct {
	ID                string `json:"id"`
	PlayerID          string `json:"player_id,omitempty"`
	Date              string `json:"date"`
	Score             int    `json:"score"`
	TimeSeconds       int    `json:"time_seconds"`
	Mistakes          int    `json:"mistakes"`
	CorrectPlacements int    `json:"correct_placements"`
}

// ScoreFromModel converts model.Score
func ScoreFromModel(s *model.Score) Score {
	return Score{
		ID:                string(s.ID),
		PlayerID:          string(s.PlayerID),
		Date:              string(s.PuzzleDate),
		Score:             s.Score,
		TimeSeconds:       s.TimeSeconds,
		Mistakes:          s.Mistakes,
		CorrectPlacements: s.CorrectPlacements,
	}
}

// SubmitScoreResponse is the response after submitting a score.
// Rank is omitted when it could not be computed.
type SubmitScoreResponse struct {
	ID         string `json:"id"`
	Existing   bool   `json:"existing"`
	Rank       int    `json:"rank,omitempty"`
	Percentile int    `json:"percentile"`
	Score      Score  `json:"score"`
}

// ClaimResponse is the response after claiming a score
type ClaimResponse struct {
	Outcome string `json:"outcome"`
	Score   *Score `json:"score,omitempty"`
}

// RankResponse is the rank of a hypothetical or real result
type RankResponse struct {
	Date        string `json:"date"`
	Score       int    `json:"score"`
	TimeSeconds int    `json:"time_seconds"`
	Rank        int    `json:"rank,omitempty"`
}

// PercentileResponse is the percentile of a score
type PercentileResponse struct {
	Date       string `json:"date"`
	Score      int    `json:"score"`
	Percentile int    `json:"percentile"`
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank              int    `json:"rank"`
	PlayerID          string `json:"player_id"`
	DisplayName       string `json:"display_name"`
	Score             int    `json:"score"`
	TimeSeconds       int    `json:"time_seconds"`
	Mistakes          int    `json:"mistakes"`
	CorrectPlacements int    `json:"correct_placements"`
}

// LeaderboardEntryFromModel converts model.LeaderboardEntry
func LeaderboardEntryFromModel(e model.LeaderboardEntry) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:              e.Rank,
		PlayerID:          string(e.Score.PlayerID),
		DisplayName:       e.DisplayName,
		Score:             e.Score.Score,
		TimeSeconds:       e.Score.TimeSeconds,
		Mistakes:          e.Score.Mistakes,
		CorrectPlacements: e.Score.CorrectPlacements,
	}
}

// MyStanding is the signed-in player's row when it is not on the page
type MyStanding struct {
	LeaderboardEntry
	Percentile int `json:"percentile"`
}

// Leaderboard is one page of a day's leaderboard
type Leaderboard struct {
	Date     string             `json:"date"`
	Entries  []LeaderboardEntry `json:"entries"`
	HasMore  bool               `json:"has_more"`
	NextFrom int                `json:"next_from"`
	Me       *MyStanding        `json:"me,omitempty"`
}

// LeaderboardFromModel converts model.LeaderboardPage; me may be nil
func LeaderboardFromModel(p *model.LeaderboardPage, me *leaderboard.PlayerStanding) Leaderboard {
	entries := make([]LeaderboardEntry, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = LeaderboardEntryFromModel(e)
	}

	resp := Leaderboard{
		Date:     string(p.Date),
		Entries:  entries,
		HasMore:  p.HasMore,
		NextFrom: p.NextFrom,
	}
	if me != nil {
		resp.Me = &MyStanding{
			LeaderboardEntry: LeaderboardEntryFromModel(me.Entry),
			Percentile:       me.Percentile,
		}
	}
	return resp
}

// Reconciliation is the outcome of a sign-in reconciliation
type Reconciliation struct {
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	Score      *Score `json:"score,omitempty"`
	Rank       *int   `json:"rank,omitempty"`
	Percentile *int   `json:"percentile,omitempty"`
}

// ReconciliationFromOutcome converts a reconcile.Outcome
func ReconciliationFromOutcome(o reconcile.Outcome) Reconciliation {
	resp := Reconciliation{Action: o.Action()}
	switch o := o.(type) {
	case reconcile.LoadedExisting:
		resp.withScore(&o.Score, o.Standing)
	case reconcile.ClaimedAnonymous:
		resp.withScore(&o.Score, o.Standing)
	case reconcile.NoChange:
		resp.Reason = o.Reason
	}
	return resp
}

func (r *Reconciliation) withScore(s *model.Score, standing ranking.Standing) {
	score := ScoreFromModel(s)
	r.Score = &score
	if standing.Known() {
		rank := standing.Rank
		r.Rank = &rank
	}
	percentile := standing.Percentile
	r.Percentile = &percentile
}
