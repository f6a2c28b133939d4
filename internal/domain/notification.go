package domain

import (
	"context"
	"time"
)

// Notification is a global, team-wide message
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationRepository defines data access for notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListRecent(ctx context.Context, limit int) ([]*Notification, error)
	CountUnread(ctx context.Context) (int, error)
	MarkAllRead(ctx context.Context) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
