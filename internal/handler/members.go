package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

// MembersHandler lists active members for the actor picker
type MembersHandler struct {
	members domain.MemberRepository
	logger  *slog.Logger
}

func NewMembersHandler(members domain.MemberRepository, logger *slog.Logger) *MembersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MembersHandler{members: members, logger: logger}
}

// List handles GET /api/members
func (h *MembersHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if members == nil {
		members = []*domain.Member{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"data": members})
}
