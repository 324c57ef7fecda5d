package model

import "fmt"

// Score bounds
const (
	MinScore = 0
	MaxScore = 1000

	// MaxTimeSeconds bounds a solve time. Keeping it below 10^7 lets ordered
	// stores pack (score, time) into a single sortable number.
	MaxTimeSeconds = 9_999_999
)

// ScoreID uniquely and immutably identifies a stored score row.
// It is the only handle by which an anonymous row can later be claimed.
type ScoreID string

// Score is one submission for one daily puzzle.
// PlayerID is empty while the row is anonymous; it is set at most once.
type Score struct {
	ID                ScoreID
	PlayerID          PlayerID
	PuzzleDate        PuzzleDate
	Score             int
	TimeSeconds       int
	Mistakes          int
	CorrectPlacements int
}

// IsClaimed reports whether the row is owned by a player
func (s *Score) IsClaimed() bool {
	return s.PlayerID != ""
}

// IsOwnedBy reports whether the row is owned by playerID
func (s *Score) IsOwnedBy(playerID PlayerID) bool {
	return playerID != "" && s.PlayerID == playerID
}

// ValidateResult bounds a score and solve time, stored or hypothetical
func ValidateResult(score, timeSeconds int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: score %d outside [%d,%d]", ErrInvalidScore, score, MinScore, MaxScore)
	}
	if timeSeconds < 0 || timeSeconds > MaxTimeSeconds {
		return fmt.Errorf("%w: time_seconds %d outside [0,%d]", ErrInvalidScore, timeSeconds, MaxTimeSeconds)
	}
	return nil
}

// Validate checks the payload of a submission
func (s *Score) Validate() error {
	if err := s.PuzzleDate.Validate(); err != nil {
		return err
	}
	if err := ValidateResult(s.Score, s.TimeSeconds); err != nil {
		return err
	}
	if s.Mistakes < 0 {
		return fmt.Errorf("%w: negative mistakes", ErrInvalidScore)
	}
	if s.CorrectPlacements < 0 {
		return fmt.Errorf("%w: negative correct_placements", ErrInvalidScore)
	}
	return nil
}

// Ahead reports whether s sorts strictly before (score, timeSeconds) in
// leaderboard order: score descending, then time ascending.
func (s *Score) Ahead(score, timeSeconds int) bool {
	return s.Score > score || (s.Score == score && s.TimeSeconds < timeSeconds)
}

// ClaimOutcome is the result of attaching a player to an anonymous score
type ClaimOutcome int

const (
	ClaimClaimed ClaimOutcome = iota + 1
	ClaimAlreadyOwnedBySelf
	ClaimConflict
	ClaimNotFound
)

func (o ClaimOutcome) String() string {
	switch o {
	case ClaimClaimed:
		return "claimed"
	case ClaimAlreadyOwnedBySelf:
		return "already_owned_by_self"
	case ClaimConflict:
		return "conflict"
	case ClaimNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the claimant owns the row after the claim
func (o ClaimOutcome) Succeeded() bool {
	return o == ClaimClaimed || o == ClaimAlreadyOwnedBySelf
}

// LeaderboardEntry is one ranked row of a leaderboard page
type LeaderboardEntry struct {
	Rank        int
	Score       Score
	DisplayName string
}

// LeaderboardPage is a window of the leaderboard for one puzzle date
type LeaderboardPage struct {
	Date     PuzzleDate
	Entries  []LeaderboardEntry
	HasMore  bool
	NextFrom int
}

// Includes reports whether playerID owns an entry on the page
func (p *LeaderboardPage) Includes(playerID PlayerID) bool {
	for i := range p.Entries {
		if p.Entries[i].Score.IsOwnedBy(playerID) {
			return true
		}
	}
	return false
}
