package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

// PostgresNotificationRepository implements domain.NotificationRepository using PostgreSQL
type PostgresNotificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresNotificationRepository creates a new notification repository
func NewPostgresNotificationRepository(db *sql.DB, logger *slog.Logger) *PostgresNotificationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationRepository{db: db, logger: logger}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (id, message, read) VALUES ($1, $2, $3) RETURNING created_at`,
		n.ID, n.Message, n.Read,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message, read, created_at
		FROM notifications
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresNotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE read = FALSE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	return r.exec(ctx, "mark notifications read", `UPDATE notifications SET read = TRUE WHERE read = FALSE`)
}

func (r *PostgresNotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.exec(ctx, "delete notifications", `DELETE FROM notifications WHERE read = TRUE AND created_at < $1`, cutoff)
}

func (r *PostgresNotificationRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n, nil
}
