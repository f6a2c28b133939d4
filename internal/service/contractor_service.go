package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/export"
	"github.com/aryan0dhankhar/outreach/internal/infrastructure/objectstore"
	"github.com/aryan0dhankhar/outreach/internal/observability/metrics"
	"github.com/aryan0dhankhar/outreach/internal/security"
	"github.com/aryan0dhankhar/outreach/internal/security/audit"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit well inside int range
	MaxPage = 1_000_000
)

// ListQuery is the caller-facing list and export filter
type ListQuery struct {
	Page       int
	Limit      int
	Status     string
	AssignedTo string
	City       string
	State      string
	Q          string
}

// ListResult is one page of contractors
type ListResult struct {
	Data  []*domain.Contractor `json:"data"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Total int                  `json:"total"`
}

// UpdateRequest stages changes to one contractor. Nil fields are left alone;
// an empty assignee is treated the same as a missing one.
type UpdateRequest struct {
	ID           string  `json:"id"`
	Status       *string `json:"status,omitempty"`
	AssignedToID *string `json:"assignedToId,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// ExportFile is a rendered CSV export
type ExportFile struct {
	Filename string
	Rows     int
	Data     []byte
}

// Archiver stores a copy of an export
type Archiver interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
}

// ContractorService lists, exports and mutates contractors within the caller's scope
type ContractorService struct {
	contractors   domain.ContractorRepository
	members       domain.MemberRepository
	policy        *security.Policy
	activity      *ActivityRecorder
	notifications *NotificationService
	archive       Archiver
	audit         *audit.Logger
	logger        *slog.Logger
	now           func() time.Time
}

// NewContractorService creates a contractor service. archive may be nil.
func NewContractorService(
	contractors domain.ContractorRepository,
	members domain.MemberRepository,
	policy *security.Policy,
	activity *ActivityRecorder,
	notifications *NotificationService,
	archive Archiver,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *ContractorService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &ContractorService{
		contractors:   contractors,
		members:       members,
		policy:        policy,
		activity:      activity,
		notifications: notifications,
		archive:       archive,
		audit:         auditLog,
		logger:        logger,
		now:           time.Now,
	}
}

// List returns one page of the contractors visible to the caller, newest first
func (s *ContractorService) List(ctx context.Context, caller security.CallerIdentity, q ListQuery) (*ListResult, error) {
	filter, _, err := s.filter(ctx, caller, q)
	if err != nil {
		return nil, err
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		return nil, domain.NewValidationError("page", fmt.Sprintf("page must be at most %d", MaxPage))
	}
	switch {
	case limit < 1:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	total, err := s.contractors.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count contractors: %w", err)
	}
	data, err := s.contractors.List(ctx, filter, domain.Page{Offset: (page - 1) * limit, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	if data == nil {
		data = []*domain.Contractor{}
	}
	return &ListResult{Data: data, Page: page, Limit: limit, Total: total}, nil
}

// Export renders every contractor visible to the caller as CSV, using the
// same filter as List without pagination.
func (s *ContractorService) Export(ctx context.Context, caller security.CallerIdentity, q ListQuery) (*ExportFile, error) {
	filter, scope, err := s.filter(ctx, caller, q)
	if err != nil {
		return nil, err
	}

	contractors, err := s.contractors.List(ctx, filter, domain.Page{})
	if err != nil {
		s.audit.LogExport(ctx, caller.Actor, "", 0, "error")
		return nil, fmt.Errorf("list contractors for export: %w", err)
	}

	var buf bytes.Buffer
	rows, err := export.WriteCSV(&buf, contractors)
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	now := s.now()
	file := &ExportFile{
		Filename: export.Filename(caller.Actor, scope.IsAdmin(), now),
		Rows:     rows,
		Data:     buf.Bytes(),
	}

	if s.archive != nil {
		key := objectstore.ExportKey(now, file.Filename)
		if err := s.archive.Put(ctx, key, file.Data, "text/csv"); err != nil {
			s.logger.Warn("failed to archive export",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	metrics.ObserveExport(rows)
	s.audit.LogExport(ctx, caller.Actor, file.Filename, rows, "success")
	return file, nil
}

func (s *ContractorService) filter(ctx context.Context, caller security.CallerIdentity, q ListQuery) (domain.ContractorFilter, security.Scope, error) {
	req := security.FilterRequest{
		AssignedTo: q.AssignedTo,
		City:       q.City,
		State:      q.State,
		Query:      q.Q,
	}
	if raw := strings.TrimSpace(q.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.ContractorFilter{}, security.Scope{}, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", raw))
		}
		req.Status = status
	}

	scope, err := s.policy.Scope(ctx, caller)
	if err != nil {
		return domain.ContractorFilter{}, security.Scope{}, err
	}
	return s.policy.ContractorFilter(scope, req), scope, nil
}

// ApplyUpdate applies the fields of req that differ from the stored record in
// a single write, then logs one activity entry per changed field. A request
// that changes nothing writes nothing and logs nothing.
func (s *ContractorService) ApplyUpdate(ctx context.Context, caller security.CallerIdentity, req UpdateRequest) (*domain.Contractor, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, domain.NewValidationError("id", "id is required")
	}

	contractor, err := s.contractors.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	scope, err := s.policy.Scope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanWrite(scope, contractor); err != nil {
		s.audit.LogDenied(ctx, caller.Actor, fmt.Sprintf("update contractor %s", contractor.ID))
		return nil, err
	}

	var (
		changes  domain.ContractorChanges
		entries  []*domain.ActivityLogEntry
		assignee *domain.Member
	)

	if req.Status != nil && *req.Status != "" {
		status, ok := domain.ParseStatus(*req.Status)
		if !ok {
			return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", *req.Status))
		}
		if status != contractor.Status {
			changes.Status = &status
			entries = append(entries, &domain.ActivityLogEntry{
				Action:     domain.ActionStatusChange,
				FromStatus: contractor.Status,
				ToStatus:   status,
			})
		}
	}

	if req.AssignedToID != nil {
		if id := strings.TrimSpace(*req.AssignedToID); id != "" && id != contractor.AssignedToID {
			assignee, err = s.members.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, fmt.Errorf("assignee %s: %w", id, domain.ErrNotFound)
				}
				return nil, fmt.Errorf("lookup assignee %s: %w", id, err)
			}
			changes.AssignedToID = &id
			entries = append(entries, &domain.ActivityLogEntry{
				Action:       domain.ActionAssignChange,
				FromAssignee: contractor.AssignedToID,
				ToAssignee:   id,
			})
		}
	}

	if req.Notes != nil && *req.Notes != contractor.Notes {
		notes := *req.Notes
		changes.Notes = &notes
		entries = append(entries, &domain.ActivityLogEntry{
			Action: domain.ActionNotesEdit,
			Notes:  notes,
		})
	}

	if changes.Empty() {
		return contractor, nil
	}

	if err := s.contractors.ApplyChanges(ctx, contractor.ID, changes); err != nil {
		return nil, fmt.Errorf("update contractor %s: %w", contractor.ID, err)
	}

	if changes.Status != nil {
		contractor.Status = *changes.Status
	}
	if changes.AssignedToID != nil {
		contractor.AssignedToID = *changes.AssignedToID
	}
	if changes.Notes != nil {
		contractor.Notes = *changes.Notes
	}

	for _, entry := range entries {
		entry.Actor = caller.Actor
		entry.ContractorID = contractor.ID
		s.activity.Record(ctx, entry)
		metrics.ObserveContractorChange(string(entry.Action))
	}

	if assignee != nil && s.notifications != nil {
		s.notifications.Notify(ctx, fmt.Sprintf("%s assigned %s to %s", caller.Actor, contractor.Name, assignee.Name))
	}

	s.logger.Info("contractor updated",
		slog.String("contractor_id", contractor.ID),
		slog.String("actor", caller.Actor),
		slog.Int("changes", len(entries)),
	)
	return contractor, nil
}
