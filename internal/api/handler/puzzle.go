package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/crosswordgame-daily/internal/api/middleware"
	"github.com/mcoot/crosswordgame-daily/internal/api/response"
	"github.com/mcoot/crosswordgame-daily/internal/model"
	"github.com/mcoot/crosswordgame-daily/internal/services/leaderboard"
	"github.com/mcoot/crosswordgame-daily/internal/services/ranking"
)

// DefaultPageSize is used when a leaderboard request omits page_size
const DefaultPageSize = 50

// PuzzleHandler handles per-day rank, percentile and leaderboard endpoints
type PuzzleHandler struct {
	ranking     *ranking.Service
	leaderboard *leaderboard.Service
	calendar    Calendar
	logger      *slog.Logger
}

// NewPuzzleHandler creates a new puzzle handler
func NewPuzzleHandler(ranking *ranking.Service, leaderboard *leaderboard.Service, calendar Calendar, logger *slog.Logger) *PuzzleHandler {
	return &PuzzleHandler{
		ranking:     ranking,
		leaderboard: leaderboard,
		calendar:    calendar,
		logger:      logger,
	}
}

func (h *PuzzleHandler) date(r *http.Request) (model.PuzzleDate, error) {
	return resolveDate(h.calendar, mux.Vars(r)["date"])
}

// Rank handles GET /api/v1/puzzles/{date}/rank?score=&time_seconds=.
// Rank is omitted when the store cannot be read.
func (h *PuzzleHandler) Rank(w http.ResponseWriter, r *http.Request) {
	date, err := h.date(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	score, err := queryInt(r, "score", 0, true, model.ErrInvalidScore)
	if err != nil {
		WriteError(w, err)
		return
	}
	timeSeconds, err := queryInt(r, "time_seconds", 0, true, model.ErrInvalidScore)
	if err != nil {
		WriteError(w, err)
		return
	}

	// A store failure leaves the rank out rather than failing the request
	rank, err := h.ranking.RankOrUnknown(r.Context(), date, score, timeSeconds)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RankResponse{
		Date:        string(date),
		Score:       score,
		TimeSeconds: timeSeconds,
		Rank:        rank,
	})
}

// Percentile handles GET /api/v1/puzzles/{date}/percentile?score=.
// A store failure reports the neutral percentile.
func (h *PuzzleHandler) Percentile(w http.ResponseWriter, r *http.Request) {
	date, err := h.date(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	score, err := queryInt(r, "score", 0, true, model.ErrInvalidScore)
	if err != nil {
		WriteError(w, err)
		return
	}

	percentile, err := h.ranking.PercentileOrNeutral(r.Context(), date, score)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PercentileResponse{
		Date:       string(date),
		Score:      score,
		Percentile: percentile,
	})
}

// Leaderboard handles GET /api/v1/puzzles/{date}/leaderboard?from=&page_size=.
// A signed-in player who played but is not on the page gets a "me" block.
func (h *PuzzleHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	date, err := h.date(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	from, err := queryInt(r, "from", 0, false, model.ErrInvalidPage)
	if err != nil {
		WriteError(w, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", min(DefaultPageSize, h.leaderboard.MaxPageSize()), false, model.ErrInvalidPage)
	if err != nil {
		WriteError(w, err)
		return
	}

	page, err := h.leaderboard.Page(r.Context(), date, from, pageSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	var me *leaderboard.PlayerStanding
	if player := middleware.GetPlayer(r.Context()); player != nil && !page.Includes(player.ID) {
		me = h.myStanding(r, date, player.ID)
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(page, me))
}

// myStanding is best effort: the page is still served without it
func (h *PuzzleHandler) myStanding(r *http.Request, date model.PuzzleDate, playerID model.PlayerID) *leaderboard.PlayerStanding {
	standing, err := h.leaderboard.PlayerStanding(r.Context(), date, playerID)
	if err != nil {
		if !errors.Is(err, model.ErrScoreNotFound) {
			h.logger.Warn("player standing unavailable",
				"puzzle_date", date,
				"player_id", playerID,
				"error", err,
			)
		}
		return nil
	}
	return standing
}
