package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/service"
)

// ActivityHandler serves the activity feed
type ActivityHandler struct {
	recorder *service.ActivityRecorder
	logger   *slog.Logger
}

func NewActivityHandler(recorder *service.ActivityRecorder, logger *slog.Logger) *ActivityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityHandler{recorder: recorder, logger: logger}
}

// List handles GET /api/activity
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r, h.logger); !ok {
		return
	}

	params := r.URL.Query()
	limit, _ := strconv.Atoi(params.Get("limit"))
	entries, err := h.recorder.List(r.Context(), domain.ActivityQuery{
		ContractorID: params.Get("contractorId"),
		Actor:        params.Get("actor"),
		Limit:        limit,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []*domain.ActivityLogEntry{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"data": entries})
}
