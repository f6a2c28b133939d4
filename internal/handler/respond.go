package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/security"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		verr *domain.ValidationError
		lerr *domain.LocationResolutionError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, logger, http.StatusBadRequest, verr.Error())
	case errors.As(err, &lerr):
		writeError(w, logger, http.StatusUnprocessableEntity, lerr.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, logger, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, logger, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, logger, http.StatusConflict, "conflict")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, logger, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		logger.Info("request canceled", slog.String("path", r.URL.Path))
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, logger, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("body", "invalid JSON body")
	}
	return nil
}

// callerFrom returns the session identity or writes a 401
func callerFrom(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (security.CallerIdentity, bool) {
	caller, ok := security.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, logger, http.StatusUnauthorized, "missing session")
	}
	return caller, ok
}
