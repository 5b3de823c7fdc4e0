package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/team-progress-api/internal/application/member"
	"github.com/team-progress-api/internal/application/notifier"
	"github.com/team-progress-api/internal/pkg/validate"
)

type reminderRunner interface {
	RunInactiveReminders(ctx context.Context) error
}

// NotificationHandler handles ad-hoc pushes and the manual reminder trigger.
type NotificationHandler struct {
	members    member.Service
	dispatcher notifier.Service
	reminders  reminderRunner
}

func NewNotificationHandler(members member.Service, dispatcher notifier.Service, reminders reminderRunner) *NotificationHandler {
	return &NotificationHandler{members: members, dispatcher: dispatcher, reminders: reminders}
}

type sendNotificationRequest struct {
	MemberID string            `json:"member_id" validate:"required"`
	Title    string            `json:"title"`
	Body     string            `json:"body" validate:"required"`
	Data     map[string]string `json:"data"`
}

// Send pushes a one-off notification to every device of one member.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.members.Get(r.Context(), req.MemberID)
	if err != nil {
		httpError(w, err)
		return
	}
	title := req.Title
	if title == "" {
		title = notifier.TitleDefault
	}
	res, err := h.dispatcher.Send(r.Context(), m.DeviceTokens, title, req.Body, req.Data)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RunReminders manually triggers the inactive-member reminder pass.
func (h *NotificationHandler) RunReminders(w http.ResponseWriter, r *http.Request) {
	if err := h.reminders.RunInactiveReminders(r.Context()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "reminders dispatched"})
}
