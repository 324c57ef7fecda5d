package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/crosswordgame-daily/internal/api/middleware"
	"github.com/mcoot/crosswordgame-daily/internal/api/request"
	"github.com/mcoot/crosswordgame-daily/internal/api/response"
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/claim"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
	"github.com/mcoot/crosswordgame-daily/internal/services/scores"
)

// ScoreHandler handles score submission and ownership endpoints
type ScoreHandler struct {
	scores   *scores.Service
	ranking  *ranking.Service
	claims   *claim.Service
	calendar Calendar
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scores *scores.Service, ranking *ranking.Service, claims *claim.Service, calendar Calendar) *ScoreHandler {
	return &ScoreHandler{
		scores:   scores,
		ranking:  ranking,
		claims:   claims,
		calendar: calendar,
	}
}

// Submit handles POST /api/v1/scores.
// Without a session the score is stored anonymously.
func (h *ScoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Score == nil {
		WriteError(w, fmt.Errorf("%w: score is required", model.ErrInvalidScore))
		return
	}
	if req.TimeSeconds == nil {
		WriteError(w, fmt.Errorf("%w: time_seconds is required", model.ErrInvalidScore))
		return
	}

	date, err := resolveDate(h.calendar, req.Date)
	if err != nil {
		WriteError(w, err)
		return
	}

	sub := scores.Submission{
		PuzzleDate:        date,
		Score:             *req.Score,
		TimeSeconds:       *req.TimeSeconds,
		Mistakes:          req.Mistakes,
		CorrectPlacements: req.CorrectPlacements,
		ClientRef:         req.ClientRef,
	}
	if player := middleware.GetPlayer(r.Context()); player != nil {
		sub.PlayerID = player.ID
	}

	result, err := h.scores.Submit(r.Context(), sub)
	if err != nil {
		WriteError(w, err)
		return
	}

	stored := result.Score
	standing := h.ranking.Standing(r.Context(), stored.PuzzleDate, stored.Score, stored.TimeSeconds)

	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}
	response.JSON(w, status, response.SubmitScoreResponse{
		ID:         string(stored.ID),
		Existing:   result.Existing,
		Rank:       standing.Rank,
		Percentile: standing.Percentile,
		Score:      response.ScoreFromModel(stored),
	})
}

// GetMine handles GET /api/v1/scores/me?date=
func (h *ScoreHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	date, err := resolveDate(h.calendar, r.URL.Query().Get("date"))
	if err != nil {
		WriteError(w, err)
		return
	}

	score, err := h.scores.GetForPlayer(r.Context(), player.ID, date)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreFromModel(score))
}

// Claim handles POST /api/v1/scores/{id}/claim.
// A conflict is an outcome, not an error.
func (h *ScoreHandler) Claim(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	scoreID := model.ScoreID(mux.Vars(r)["id"])

	result, err := h.claims.Claim(r.Context(), scoreID, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.ClaimResponse{Outcome: result.Outcome.String()}
	if result.Score != nil {
		s := response.ScoreFromModel(result.Score)
		resp.Score = &s
	}
	response.JSON(w, http.StatusOK, resp)
}
