package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/service"
)

// NotificationActionRequest is the body of POST /api/notifications
type NotificationActionRequest struct {
	Action string `json:"action"`
}

// NotificationsHandler serves the notification feed
type NotificationsHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

func NewNotificationsHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationsHandler{notifications: notifications, logger: logger}
}

// List handles GET /api/notifications
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r, h.logger); !ok {
		return
	}
	items, err := h.notifications.Recent(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"notifications": items})
}

// Count handles GET /api/notifications/count
func (h *NotificationsHandler) Count(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r, h.logger); !ok {
		return
	}
	count, err := h.notifications.UnreadCount(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]int{"count": count})
}

// Act handles POST /api/notifications
func (h *NotificationsHandler) Act(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r, h.logger); !ok {
		return
	}
	var req NotificationActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if _, err := h.notifications.Apply(r.Context(), req.Action); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]bool{"success": true})
}
