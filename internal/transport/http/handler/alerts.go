package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/team-progress-api/internal/application/alerting"
	"github.com/team-progress-api/internal/domain"
)

type sweepRunner interface {
	RunGroupAlertSweep(ctx context.Context) error
}

// AlertHandler handles group alert endpoints.
type AlertHandler struct {
	svc   alerting.Service
	sweep sweepRunner
}

func NewAlertHandler(svc alerting.Service, sweep sweepRunner) *AlertHandler {
	return &AlertHandler{svc: svc, sweep: sweep}
}

func (h *AlertHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.ListActive(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	var req domain.DeactivateAlertRequest
	if r.Body != nil {
		// An empty body is fine, the reason defaults server-side.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.svc.Deactivate(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "alert deactivated"})
}

// Sweep manually triggers the group alert sweep.
func (h *AlertHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if err := h.sweep.RunGroupAlertSweep(r.Context()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "alert sweep completed"})
}
