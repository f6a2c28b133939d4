package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

// PostgresActivityRepository is the append-only activity log in PostgreSQL
type PostgresActivityRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresActivityRepository creates a new activity repository
func NewPostgresActivityRepository(db *sql.DB, logger *slog.Logger) *PostgresActivityRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityRepository{db: db, logger: logger}
}

// Append inserts an entry; empty optional fields are stored as NULL
func (r *PostgresActivityRepository) Append(ctx context.Context, e *domain.ActivityLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO activity_logs (id, actor, action, contractor_id, from_status, to_status,
			from_assignee, to_assignee, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.Actor, string(e.Action), nullIfEmpty(e.ContractorID),
		nullIfEmpty(string(e.FromStatus)), nullIfEmpty(string(e.ToStatus)),
		nullIfEmpty(e.FromAssignee), nullIfEmpty(e.ToAssignee), nullIfEmpty(e.Notes),
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// List returns entries newest first
func (r *PostgresActivityRepository) List(ctx context.Context, q domain.ActivityQuery) ([]*domain.ActivityLogEntry, error) {
	b := &whereBuilder{}
	if q.ContractorID != "" {
		b.add("contractor_id = %s", q.ContractorID)
	}
	if q.Actor != "" {
		b.add("actor = %s", q.Actor)
	}
	query := `SELECT id, actor, action, contractor_id, from_status, to_status, from_assignee,
		to_assignee, notes, created_at FROM activity_logs` + b.sql() + ` ORDER BY created_at DESC, id`
	args := b.args
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var out []*domain.ActivityLogEntry
	for rows.Next() {
		var (
			e                                  domain.ActivityLogEntry
			action                             string
			contractorID, fromStatus, toStatus sql.NullString
			fromAssignee, toAssignee, notes    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Actor, &action, &contractorID, &fromStatus, &toStatus,
			&fromAssignee, &toAssignee, &notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		e.Action = domain.ActivityAction(action)
		e.ContractorID = contractorID.String
		e.FromStatus = domain.Status(fromStatus.String)
		e.ToStatus = domain.Status(toStatus.String)
		e.FromAssignee = fromAssignee.String
		e.ToAssignee = toAssignee.String
		e.Notes = notes.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
