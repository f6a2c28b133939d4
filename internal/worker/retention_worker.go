package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/observability/metrics"
)

// Purger deletes read notifications older than a retention window
type Purger interface {
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// RetentionWorker periodically purges read notifications past retention
type RetentionWorker struct {
	purger    Purger
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewRetentionWorker creates a new retention worker
func NewRetentionWorker(purger Purger, retention, interval time.Duration, logger *slog.Logger) *RetentionWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionWorker{
		purger:    purger,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs one purge immediately, then one per interval until ctx is done
func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("retention worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("retention", w.retention),
	)

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge pass
func (w *RetentionWorker) RunOnce(ctx context.Context) {
	removed, err := w.purger.Purge(ctx, w.retention)
	if err != nil {
		w.logger.Error("notification purge failed", slog.String("error", err.Error()))
		metrics.ObserveNotificationPurge("error", 0)
		return
	}
	if removed > 0 {
		w.logger.Info("purged read notifications", slog.Int64("removed", removed))
	}
	metrics.ObserveNotificationPurge("success", removed)
}
