package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/observability/metrics"
	"github.com/aryan0dhankhar/outreach/internal/reliability/retry"
	"github.com/aryan0dhankhar/outreach/pkg/config"
)

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

// ActivityRecorder appends audit entries to the activity log. Append failures
// never propagate to the caller; they are logged and counted.
type ActivityRecorder struct {
	repo     domain.ActivityRepository
	policy   string
	retryCfg *retry.Config
	logger   *slog.Logger
}

// NewActivityRecorder creates a recorder. policy is config.ActivityLogBestEffort
// or config.ActivityLogRetry.
func NewActivityRecorder(repo domain.ActivityRepository, policy string, logger *slog.Logger) *ActivityRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := retry.DefaultConfig()
	cfg.MaxBackoff = time.Second
	return &ActivityRecorder{repo: repo, policy: policy, retryCfg: cfg, logger: logger}
}

// Record appends one entry and reports whether it was stored
func (r *ActivityRecorder) Record(ctx context.Context, entry *domain.ActivityLogEntry) bool {
	var err error
	if r.policy == config.ActivityLogRetry {
		err = retry.Run(ctx, r.retryCfg, r.logger, "activity.append", func(ctx context.Context) error {
			return r.repo.Append(ctx, entry)
		})
	} else {
		err = r.repo.Append(ctx, entry)
	}
	if err != nil {
		metrics.ObserveActivityLogFailure()
		r.logger.Warn("failed to append activity log entry",
			slog.String("action", string(entry.Action)),
			slog.String("contractor_id", entry.ContractorID),
			slog.String("actor", entry.Actor),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// List returns entries newest first. The limit defaults to 50 and is capped at 200.
func (r *ActivityRecorder) List(ctx context.Context, query domain.ActivityQuery) ([]*domain.ActivityLogEntry, error) {
	switch {
	case query.Limit <= 0:
		query.Limit = DefaultActivityLimit
	case query.Limit > MaxActivityLimit:
		query.Limit = MaxActivityLimit
	}
	return r.repo.List(ctx, query)
}
