package service

import (
	"context"
	"testing"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/repository"
)

func TestNotificationService(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	s := NewNotificationService(repo, quietLogger())
	ctx := context.Background()

	for i := 0; i < RecentNotificationLimit+5; i++ {
		s.Notify(ctx, "hello")
	}
	recent, err := s.Recent(ctx)
	if err != nil || len(recent) != RecentNotificationLimit {
		t.Fatalf("expected %d recent, got %d %v", RecentNotificationLimit, len(recent), err)
	}

	if _, err := s.Apply(ctx, "deleteAll"); !isValidation(err) {
		t.Fatalf("expected validation error for unknown action, got %v", err)
	}
	n, err := s.Apply(ctx, ActionMarkAllRead)
	if err != nil || n != int64(RecentNotificationLimit+5) {
		t.Fatalf("mark all read: %d %v", n, err)
	}
	if unread, _ := s.UnreadCount(ctx); unread != 0 {
		t.Fatalf("expected 0 unread, got %d", unread)
	}

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	purged, err := s.Purge(ctx, 24*time.Hour)
	if err != nil || purged != int64(RecentNotificationLimit+5) {
		t.Fatalf("purge: %d %v", purged, err)
	}
}
