package domain

import (
	"context"
	"time"
)

// AdminActor is the literal actor name reserved for the administrator
const AdminActor = "Admin"

// Member represents a team member that contractors can be assigned to
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // unique
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemberRepository defines data access for members
type MemberRepository interface {
	GetByID(ctx context.Context, id string) (*Member, error)
	GetByName(ctx context.Context, name string) (*Member, error)
	ListActive(ctx context.Context) ([]*Member, error)
	Upsert(ctx context.Context, member *Member) error
}
