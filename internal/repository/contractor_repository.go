package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

const uniqueViolation = "23505"

const contractorColumns = `id, place_id, name, address, city, state, zip, main_service, keywords,
	contact_info, status, assigned_to_id, notes, created_at, updated_at`

// PostgresContractorRepository implements domain.ContractorRepository using PostgreSQL
type PostgresContractorRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresContractorRepository creates a new contractor repository
func NewPostgresContractorRepository(db *sql.DB, logger *slog.Logger) *PostgresContractorRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresContractorRepository{db: db, logger: logger}
}

// GetByID retrieves a contractor by id
func (r *PostgresContractorRepository) GetByID(ctx context.Context, id string) (*domain.Contractor, error) {
	return r.getOne(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE id = $1`, id)
}

// GetByPlaceID retrieves a contractor by its provider place id
func (r *PostgresContractorRepository) GetByPlaceID(ctx context.Context, placeID string) (*domain.Contractor, error) {
	return r.getOne(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE place_id = $1`, placeID)
}

// FindByNameAddress retrieves the oldest contractor with exactly this name and address
func (r *PostgresContractorRepository) FindByNameAddress(ctx context.Context, name, address string) (*domain.Contractor, error) {
	return r.getOne(ctx, `SELECT `+contractorColumns+`
		FROM contractors WHERE name = $1 AND address = $2
		ORDER BY created_at ASC LIMIT 1`, name, address)
}

// Create inserts a contractor, assigning id and timestamps when missing
func (r *PostgresContractorRepository) Create(ctx context.Context, c *domain.Contractor) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.StatusNotContacted
	}
	contact, err := json.Marshal(c.Contact)
	if err != nil {
		return fmt.Errorf("failed to encode contact info: %w", err)
	}

	query := `
		INSERT INTO contractors (id, place_id, name, address, city, state, zip, main_service,
			keywords, contact_info, status, assigned_to_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		c.ID, nullIfEmpty(c.PlaceID), c.Name, c.Address, c.City, c.State, c.Zip, c.MainService,
		c.Keywords, contact, string(c.Status), nullIfEmpty(c.AssignedToID), c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("contractor with place id %q: %w", c.PlaceID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create contractor: %w", err)
	}
	return nil
}

// UpdateDetails overwrites the descriptive fields of an existing contractor
func (r *PostgresContractorRepository) UpdateDetails(ctx context.Context, c *domain.Contractor) error {
	contact, err := json.Marshal(c.Contact)
	if err != nil {
		return fmt.Errorf("failed to encode contact info: %w", err)
	}
	query := `
		UPDATE contractors
		SET place_id = $1, name = $2, address = $3, city = $4, state = $5, zip = $6,
			main_service = $7, keywords = $8, contact_info = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		nullIfEmpty(c.PlaceID), c.Name, c.Address, c.City, c.State, c.Zip,
		c.MainService, c.Keywords, contact, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("contractor %s: %w", c.ID, domain.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("contractor with place id %q: %w", c.PlaceID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to update contractor: %w", err)
	}
	return nil
}

// ApplyChanges writes all staged mutable fields in a single statement
func (r *PostgresContractorRepository) ApplyChanges(ctx context.Context, id string, changes domain.ContractorChanges) error {
	if changes.Empty() {
		return nil
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if changes.Status != nil {
		set("status", string(*changes.Status))
	}
	if changes.AssignedToID != nil {
		set("assigned_to_id", nullIfEmpty(*changes.AssignedToID))
	}
	if changes.Notes != nil {
		set("notes", *changes.Notes)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE contractors SET %s, updated_at = NOW() WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contractor: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("contractor %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns contractors matching filter, newest first
func (r *PostgresContractorRepository) List(ctx context.Context, filter domain.ContractorFilter, page domain.Page) ([]*domain.Contractor, error) {
	where, args := contractorWhere(filter)
	query := `SELECT ` + contractorColumns + ` FROM contractors` + where + ` ORDER BY created_at DESC, id`
	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}
	defer rows.Close()

	var out []*domain.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns how many contractors match filter
func (r *PostgresContractorRepository) Count(ctx context.Context, filter domain.ContractorFilter) (int, error) {
	where, args := contractorWhere(filter)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contractors`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count contractors: %w", err)
	}
	return n, nil
}

func (r *PostgresContractorRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Contractor, error) {
	c, err := scanContractor(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contractor: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contractor: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContractor(row rowScanner) (*domain.Contractor, error) {
	var (
		c          domain.Contractor
		placeID    sql.NullString
		assignedTo sql.NullString
		contact    []byte
		status     string
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&c.ID, &placeID, &c.Name, &c.Address, &c.City, &c.State, &c.Zip,
		&c.MainService, &c.Keywords, &contact, &status, &assignedTo, &c.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if len(contact) > 0 {
		if err := json.Unmarshal(contact, &c.Contact); err != nil {
			return nil, fmt.Errorf("decode contact info: %w", err)
		}
	}
	c.PlaceID = placeID.String
	c.AssignedToID = assignedTo.String
	c.Status = domain.Status(status)
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return &c, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
