package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/service"
)

// ImportRequest is the body of POST /api/contractors
type ImportRequest struct {
	Contractors []domain.Candidate `json:"contractors"`
}

// ContractorsHandler serves listing, import and update of contractors
type ContractorsHandler struct {
	contractors *service.ContractorService
	imports     *service.ImportService
	logger      *slog.Logger
}

// NewContractorsHandler creates a contractors handler
func NewContractorsHandler(contractors *service.ContractorService, imports *service.ImportService, logger *slog.Logger) *ContractorsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContractorsHandler{contractors: contractors, imports: imports, logger: logger}
}

// List handles GET /api/contractors
func (h *ContractorsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.contractors.List(r.Context(), caller, listQuery(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// Import handles POST /api/contractors
func (h *ContractorsHandler) Import(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	var req ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if req.Contractors == nil {
		writeServiceError(w, r, h.logger, domain.NewValidationError("contractors", "contractors must be an array"))
		return
	}

	result, err := h.imports.Reconcile(r.Context(), caller, req.Contractors)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// Update handles PATCH /api/contractors
func (h *ContractorsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	var req service.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	contractor, err := h.contractors.ApplyUpdate(r.Context(), caller, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"ok": true, "data": contractor})
}

// Export handles GET /api/export
func (h *ContractorsHandler) Export(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, h.logger)
	if !ok {
		return
	}

	file, err := h.contractors.Export(r.Context(), caller, listQuery(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("failed to write export", slog.String("error", err.Error()))
	}
}

// listQuery reads list and export filters. Malformed numbers fall back to defaults.
func listQuery(r *http.Request) service.ListQuery {
	params := r.URL.Query()
	page, _ := strconv.Atoi(params.Get("page"))
	limit, _ := strconv.Atoi(params.Get("limit"))
	return service.ListQuery{
		Page:       page,
		Limit:      limit,
		Status:     params.Get("status"),
		AssignedTo: params.Get("assignedTo"),
		City:       params.Get("city"),
		State:      params.Get("state"),
		Q:          params.Get("q"),
	}
}
