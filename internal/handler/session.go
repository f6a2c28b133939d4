package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/security/audit"
	"github.com/aryan0dhankhar/outreach/internal/security/auth"
	"github.com/aryan0dhankhar/outreach/internal/service"
)

// SessionHandler handles login and logout
type SessionHandler struct {
	auth         *service.AuthService
	audit        *audit.Logger
	secureCookie bool
	logger       *slog.Logger
}

// NewSessionHandler creates a session handler. secureCookie marks the session
// cookie Secure, which production deployments behind TLS want.
func NewSessionHandler(authService *service.AuthService, auditLog *audit.Logger, secureCookie bool, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &SessionHandler{auth: authService, audit: auditLog, secureCookie: secureCookie, logger: logger}
}

// Login handles POST /api/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.audit.LogLogin(r.Context(), req.Actor, "failure", err.Error())
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit.LogLogin(r.Context(), result.Actor, "success", "")

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   int(time.Until(result.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"ok": true, "session": result})
}

// Logout handles POST /api/logout by expiring the session cookie
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, h.logger, http.StatusOK, map[string]bool{"ok": true})
}
