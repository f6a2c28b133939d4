package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/normalize"
	"github.com/aryan0dhankhar/outreach/internal/observability/metrics"
	"github.com/aryan0dhankhar/outreach/internal/observability/tracing"
	"github.com/aryan0dhankhar/outreach/internal/security"
)

// ImportResult counts what a reconcile batch did
type ImportResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// ImportService merges candidate batches into the contractor store
type ImportService struct {
	contractors   domain.ContractorRepository
	activity      *ActivityRecorder
	notifications *NotificationService
	logger        *slog.Logger
}

// NewImportService creates an import service
func NewImportService(
	contractors domain.ContractorRepository,
	activity *ActivityRecorder,
	notifications *NotificationService,
	logger *slog.Logger,
) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		contractors:   contractors,
		activity:      activity,
		notifications: notifications,
		logger:        logger,
	}
}

// Reconcile upserts each candidate in order. A candidate matches an existing
// record by place id first, then by exact name and address. Matches are
// updated in place; everything else is inserted as NOT_CONTACTED and
// unassigned. One IMPORT entry is logged for the whole batch.
func (s *ImportService) Reconcile(ctx context.Context, caller security.CallerIdentity, candidates []domain.Candidate) (*ImportResult, error) {
	ctx, span := tracing.Tracer().Start(ctx, "import.Reconcile")
	defer span.End()
	span.SetAttributes(attribute.Int("import.candidates", len(candidates)))

	for i, c := range candidates {
		if strings.TrimSpace(c.Name) == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("contractors[%d].name", i), "name is required")
		}
	}
	s.warnNearDuplicates(candidates)

	result := &ImportResult{}
	for i := range candidates {
		inserted, err := s.reconcileOne(ctx, candidates[i])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Error("import aborted",
				slog.Int("index", i),
				slog.Int("inserted", result.Inserted),
				slog.Int("updated", result.Updated),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("reconcile candidate %d: %w", i, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	notes, _ := json.Marshal(result)
	s.activity.Record(ctx, &domain.ActivityLogEntry{
		Actor:  caller.Actor,
		Action: domain.ActionImport,
		Notes:  string(notes),
	})
	metrics.ObserveImport(result.Inserted, result.Updated)
	if s.notifications != nil {
		s.notifications.Notify(ctx, fmt.Sprintf("Imported %d new and updated %d contractors", result.Inserted, result.Updated))
	}

	span.SetAttributes(
		attribute.Int("import.inserted", result.Inserted),
		attribute.Int("import.updated", result.Updated),
	)
	s.logger.Info("import reconciled",
		slog.String("actor", caller.Actor),
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
	)
	return result, nil
}

// reconcileOne reports whether the candidate was inserted
func (s *ImportService) reconcileOne(ctx context.Context, candidate domain.Candidate) (bool, error) {
	existing, err := s.resolve(ctx, candidate)
	switch {
	case err == nil:
		return false, s.update(ctx, existing, candidate)
	case !errors.Is(err, domain.ErrNotFound):
		return false, err
	}

	contractor := &domain.Contractor{Status: domain.StatusNotContacted}
	candidate.ApplyTo(contractor)
	err = s.contractors.Create(ctx, contractor)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return false, fmt.Errorf("create contractor: %w", err)
	}

	// Another import claimed the place id between lookup and insert.
	s.logger.Debug("place id conflict on insert, updating instead", slog.String("place_id", candidate.PlaceID))
	existing, err = s.contractors.GetByPlaceID(ctx, candidate.PlaceID)
	if err != nil {
		return false, fmt.Errorf("re-resolve place id %q: %w", candidate.PlaceID, err)
	}
	return false, s.update(ctx, existing, candidate)
}

func (s *ImportService) resolve(ctx context.Context, candidate domain.Candidate) (*domain.Contractor, error) {
	if candidate.PlaceID != "" {
		existing, err := s.contractors.GetByPlaceID(ctx, candidate.PlaceID)
		if !errors.Is(err, domain.ErrNotFound) {
			return existing, err
		}
	}
	return s.contractors.FindByNameAddress(ctx, candidate.Name, candidate.Address)
}

func (s *ImportService) update(ctx context.Context, existing *domain.Contractor, candidate domain.Candidate) error {
	candidate.ApplyTo(existing)
	err := s.contractors.UpdateDetails(ctx, existing)
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}

	// The name/address match carries a different place id than a record that
	// already owns the candidate's. The place id owner wins.
	owner, lookupErr := s.contractors.GetByPlaceID(ctx, candidate.PlaceID)
	if lookupErr != nil {
		return fmt.Errorf("update contractor %s: %w", existing.ID, err)
	}
	candidate.ApplyTo(owner)
	return s.contractors.UpdateDetails(ctx, owner)
}

// warnNearDuplicates logs candidates whose name and address differ from an
// earlier candidate only by case or spacing. Matching stays exact, so these
// become separate records.
func (s *ImportService) warnNearDuplicates(candidates []domain.Candidate) {
	type key struct{ name, address string }
	seen := make(map[key]key, len(candidates))
	for _, c := range candidates {
		raw := key{c.Name, c.Address}
		folded := key{normalize.Name(c.Name), normalize.Address(c.Address)}
		if prev, ok := seen[folded]; ok && prev != raw {
			s.logger.Warn("import batch has near-duplicate candidates",
				slog.String("name", c.Name),
				slog.String("address", c.Address),
				slog.String("other_name", prev.name),
				slog.String("other_address", prev.address),
			)
			continue
		}
		seen[folded] = raw
	}
}
