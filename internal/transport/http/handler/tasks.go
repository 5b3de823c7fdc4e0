package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/team-progress-api/internal/domain"
)

type taskRunner interface {
	RunDailyReminders(ctx context.Context) error
	RunActivityVerification(ctx context.Context) error
	RunGroupAlertSweep(ctx context.Context) error
	RunRetentionCleanup(ctx context.Context) error
	RecentLogs(ctx context.Context) ([]domain.NotificationLog, error)
}

// TaskHandler exposes the scheduled tasks as manual triggers.
type TaskHandler struct {
	runner taskRunner
}

func NewTaskHandler(runner taskRunner) *TaskHandler { return &TaskHandler{runner: runner} }

// Run triggers one task by name. The route param matches the cron task set:
// reminders, verification, alerts, cleanup.
func (h *TaskHandler) Run(w http.ResponseWriter, r *http.Request) {
	var err error
	task := chi.URLParam(r, "task")
	switch task {
	case "reminders":
		err = h.runner.RunDailyReminders(r.Context())
	case "verification":
		err = h.runner.RunActivityVerification(r.Context())
	case "alerts":
		err = h.runner.RunGroupAlertSweep(r.Context())
	case "cleanup":
		err = h.runner.RunRetentionCleanup(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "unknown task")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "task " + task + " completed"})
}

func (h *TaskHandler) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.runner.RecentLogs(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
