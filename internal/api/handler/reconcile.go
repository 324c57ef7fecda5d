package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/crosswordgame-daily/internal/api/middleware"
	"github.com/mcoot/crosswordgame-daily/internal/api/request"
	"github.com/mcoot/crosswordgame-daily/internal/api/response"
	"github.com/mcoot/crosswordgame-daily/internal/services/reconcile"
)

// ReconcileHandler runs sign-in reconciliation for an existing session
type ReconcileHandler struct {
	reconciler *reconcile.Coordinator
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(reconciler *reconcile.Coordinator) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// Reconcile handles POST /api/v1/reconcile. The body is optional.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	outcome := h.reconciler.Reconcile(r.Context(), player.ID, req.LocalScore.ToReconcile())
	response.JSON(w, http.StatusOK, response.ReconciliationFromOutcome(outcome))
}
