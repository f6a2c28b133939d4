package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

// PostgresMemberRepository implements domain.MemberRepository using PostgreSQL
type PostgresMemberRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresMemberRepository creates a new member repository
func NewPostgresMemberRepository(db *sql.DB, logger *slog.Logger) *PostgresMemberRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMemberRepository{db: db, logger: logger}
}

// GetByID retrieves a member by id
func (r *PostgresMemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	return r.getOne(ctx, `SELECT id, name, is_active, created_at FROM members WHERE id = $1`, id)
}

// GetByName retrieves a member by unique name
func (r *PostgresMemberRepository) GetByName(ctx context.Context, name string) (*domain.Member, error) {
	return r.getOne(ctx, `SELECT id, name, is_active, created_at FROM members WHERE name = $1`, name)
}

// ListActive returns active members ordered by name
func (r *PostgresMemberRepository) ListActive(ctx context.Context) ([]*domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, is_active, created_at
		FROM members
		WHERE is_active = TRUE
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		m := &domain.Member{}
		if err := rows.Scan(&m.ID, &m.Name, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Upsert creates a member or updates the active flag of an existing one by name
func (r *PostgresMemberRepository) Upsert(ctx context.Context, m *domain.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	query := `
		INSERT INTO members (id, name, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET is_active = EXCLUDED.is_active
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, m.ID, m.Name, m.IsActive).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

func (r *PostgresMemberRepository) getOne(ctx context.Context, query string, arg string) (*domain.Member, error) {
	m := &domain.Member{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&m.ID, &m.Name, &m.IsActive, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}
