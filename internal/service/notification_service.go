package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

const (
	RecentNotificationLimit = 20
	ActionMarkAllRead       = "markAllRead"
)

// NotificationService manages the team-wide notification feed
type NotificationService struct {
	repo   domain.NotificationRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewNotificationService creates a notification service
func NewNotificationService(repo domain.NotificationRepository, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{repo: repo, logger: logger, now: time.Now}
}

// Notify creates a notification. Failures are logged and swallowed.
func (s *NotificationService) Notify(ctx context.Context, message string) {
	if err := s.repo.Create(ctx, &domain.Notification{Message: message}); err != nil {
		s.logger.Warn("failed to create notification",
			slog.String("message", message),
			slog.String("error", err.Error()),
		)
	}
}

// Recent returns the latest notifications, newest first
func (s *NotificationService) Recent(ctx context.Context) ([]*domain.Notification, error) {
	return s.repo.ListRecent(ctx, RecentNotificationLimit)
}

// UnreadCount returns how many notifications are unread
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	return s.repo.CountUnread(ctx)
}

// Apply runs a named bulk action. Only markAllRead is supported.
func (s *NotificationService) Apply(ctx context.Context, action string) (int64, error) {
	if action != ActionMarkAllRead {
		return 0, domain.NewValidationError("action", fmt.Sprintf("unsupported action %q", action))
	}
	n, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}

// Purge deletes read notifications older than retention
func (s *NotificationService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	n, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}
