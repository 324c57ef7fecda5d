package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Score:
		o.printScore(v)
	case SubmitResult:
		o.printSubmitResult(v)
	case ClaimResult:
		o.printClaimResult(v)
	case RankResult:
		if v.Rank > 0 {
			fmt.Fprintf(o.w, "Rank on %s: %d\n", v.Date, v.Rank)
		} else {
			fmt.Fprintf(o.w, "Rank on %s: unknown\n", v.Date)
		}
	case PercentileResult:
		fmt.Fprintf(o.w, "Percentile on %s: %d%%\n", v.Date, v.Percentile)
	case Leaderboard:
		o.printLeaderboard(v)
	case Reconciliation:
		o.printReconciliation(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// AuthResult combines player, token and the sign-in reconciliation
type AuthResult struct {
	Player         Player          `json:"player"`
	SessionToken   string          `json:"session_token"`
	Reconciliation *Reconciliation `json:"reconciliation,omitempty"`
}

// Score response type
type Score struct {
	ID                string `json:"id"`
	PlayerID          string `json:"player_id,omitempty"`
	Date              string `json:"date"`
	Score             int    `json:"score"`
	TimeSeconds       int    `json:"time_seconds"`
	Mistakes          int    `json:"mistakes"`
	CorrectPlacements int    `json:"correct_placements"`
}

// SubmitResult response type
type SubmitResult struct {
	ID         string `json:"id"`
	Existing   bool   `json:"existing"`
	Rank       int    `json:"rank,omitempty"`
	Percentile int    `json:"percentile"`
	Score      Score  `json:"score"`
}

// ClaimResult response type
type ClaimResult struct {
	Outcome string `json:"outcome"`
	Score   *Score `json:"score,omitempty"`
}

// RankResult response type
type RankResult struct {
	Date        string `json:"date"`
	Score       int    `json:"score"`
	TimeSeconds int    `json:"time_seconds"`
	Rank        int    `json:"rank,omitempty"`
}

// PercentileResult response type
type PercentileResult struct {
	Date       string `json:"date"`
	Score      int    `json:"score"`
	Percentile int    `json:"percentile"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank              int    `json:"rank"`
	PlayerID          string `json:"player_id"`
	DisplayName       string `json:"display_name"`
	Score             int    `json:"score"`
	TimeSeconds       int    `json:"time_seconds"`
	Mistakes          int    `json:"mistakes"`
	CorrectPlacements int    `json:"correct_placements"`
}

// MyStanding response type
type MyStanding struct {
	LeaderboardEntry
	Percentile int `json:"percentile"`
}

// Leaderboard response type
type Leaderboard struct {
	Date     string             `json:"date"`
	Entries  []LeaderboardEntry `json:"entries"`
	HasMore  bool               `json:"has_more"`
	NextFrom int                `json:"next_from"`
	Me       *MyStanding        `json:"me,omitempty"`
}

// Reconciliation response type
type Reconciliation struct {
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	Score      *Score `json:"score,omitempty"`
	Rank       *int   `json:"rank,omitempty"`
	Percentile *int   `json:"percentile,omitempty"`
}

// Settled reports whether the local score no longer needs attaching
func (r *Reconciliation) Settled() bool {
	return r != nil && (r.Action == "loaded_existing" || r.Action == "claimed_anonymous")
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
	if a.Reconciliation != nil {
		o.printReconciliation(*a.Reconciliation)
	}
}

func (o *Output) printScore(s Score) {
	owner := s.PlayerID
	if owner == "" {
		owner = "anonymous"
	}
	fmt.Fprintf(o.w, "Score %s on %s (%s)\n", s.ID, s.Date, owner)
	fmt.Fprintf(o.w, "  %d points in %ds, %d mistakes, %d correct\n",
		s.Score, s.TimeSeconds, s.Mistakes, s.CorrectPlacements)
}

func (o *Output) printSubmitResult(r SubmitResult) {
	if r.Existing {
		fmt.Fprintln(o.w, "Already submitted today; showing the stored score")
	}
	o.printScore(r.Score)
	if r.Rank > 0 {
		fmt.Fprintf(o.w, "Rank: %d\n", r.Rank)
	} else {
		fmt.Fprintln(o.w, "Rank: unknown")
	}
	fmt.Fprintf(o.w, "Percentile: %d%%\n", r.Percentile)
}

func (o *Output) printClaimResult(r ClaimResult) {
	fmt.Fprintf(o.w, "Claim: %s\n", r.Outcome)
	if r.Score != nil {
		o.printScore(*r.Score)
	}
}

func (o *Output) printLeaderboard(l Leaderboard) {
	fmt.Fprintf(o.w, "Leaderboard for %s\n", l.Date)
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tSCORE\tTIME\tMISTAKES")
	for _, e := range l.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%ds\t%d\n", e.Rank, e.DisplayName, e.Score, e.TimeSeconds, e.Mistakes)
	}
	if l.Me != nil {
		fmt.Fprintln(tw, "...\t\t\t\t")
		fmt.Fprintf(tw, "%d\t%s (you)\t%d\t%ds\t%d\n", l.Me.Rank, l.Me.DisplayName, l.Me.Score, l.Me.TimeSeconds, l.Me.Mistakes)
	}
	_ = tw.Flush()
	if l.HasMore {
		fmt.Fprintf(o.w, "More: --from %d\n", l.NextFrom)
	}
}

func (o *Output) printReconciliation(r Reconciliation) {
	if r.Reason != "" {
		fmt.Fprintf(o.w, "Reconciliation: %s (%s)\n", r.Action, r.Reason)
	} else {
		fmt.Fprintf(o.w, "Reconciliation: %s\n", r.Action)
	}
	if r.Score != nil {
		o.printScore(*r.Score)
	}
	if r.Rank != nil {
		fmt.Fprintf(o.w, "Rank: %d\n", *r.Rank)
	}
	if r.Percentile != nil {
		fmt.Fprintf(o.w, "Percentile: %d%%\n", *r.Percentile)
	}
}
