package reconcile

import (
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
)

// Actions reported by Outcome.Action
const (
	ActionLoadedExisting   = "loaded_existing"
	ActionClaimedAnonymous = "claimed_anonymous"
	ActionNoChange         = "no_change"
)

// Reasons attached to NoChange
const (
	ReasonInProgress       = "in_progress"
	ReasonNoLocalScore     = "no_local_score"
	ReasonStoreUnavailable = "store_unavailable"
	ReasonClaimConflict    = "claim_conflict"
	ReasonScoreNotFound    = "score_not_found"
	ReasonScoreIDPending   = "score_id_unresolved"
	ReasonCancelled        = "cancelled"
)

// Outcome is the result of one reconciliation. It is one of
// LoadedExisting, ClaimedAnonymous or NoChange.
type Outcome interface {
	Action() string
	outcome()
}

// LoadedExisting means the player already had a score for today on the
// server; any local anonymous score was discarded
type LoadedExisting struct {
	Score    model.Score
	Standing ranking.Standing
}

// ClaimedAnonymous means the player's local anonymous score now belongs to them
type ClaimedAnonymous struct {
	Score    model.Score
	Standing ranking.Standing
}

// NoChange means nothing was loaded or claimed; the player may play fresh
type NoChange struct {
	Reason string
}

func (LoadedExisting) Action() string   { return ActionLoadedExisting }
func (ClaimedAnonymous) Action() string { return ActionClaimedAnonymous }
func (NoChange) Action() string         { return ActionNoChange }

func (LoadedExisting) outcome()   {}
func (ClaimedAnonymous) outcome() {}
func (NoChange) outcome()         {}
