package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/crosswordgame-daily/internal/api/middleware"
	"github.com/mcoot/crosswordgame-daily/internal/api/request"
	"github.com/mcoot/crosswordgame-daily/internal/api/response"
	"github.com/mcoot/crosswordgame-daily/internal/services/auth"
	"github.com/mcoot/crosswordgame-daily/internal/services/reconcile"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	authService *auth.Service
	reconciler  *reconcile.Coordinator
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, reconciler *reconcile.Coordinator) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
		reconciler:  reconciler,
	}
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}
	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	session, err := h.authService.RegisterPlayer(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/players/login.
// Every sign-in runs reconciliation; its outcome never fails the login.
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	outcome := h.reconciler.Reconcile(r.Context(), session.PlayerID, req.LocalScore.ToReconcile())
	reconciliation := response.ReconciliationFromOutcome(outcome)

	resp := response.AuthResponseFromSession(session)
	resp.Reconciliation = &reconciliation
	response.JSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/players/logout
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
