package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

// AssignedToSelf is the assignee filter value meaning "the caller's own member record"
const AssignedToSelf = "self"

// Role is the caller's access level
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// MemberDirectory resolves actor names to active members.
// Unknown and inactive names return domain.ErrNotFound.
type MemberDirectory interface {
	ResolveActor(ctx context.Context, name string) (*domain.Member, error)
}

// Scope is the visibility granted to one caller
type Scope struct {
	Actor string
	Role  Role
	// RestrictToAssigneeID forces every query to this assignee when set
	RestrictToAssigneeID string
	// DenyAll makes every query match nothing
	DenyAll bool
	// SelfMemberID is the caller's own member id, if one exists
	SelfMemberID string
}

// IsAdmin reports whether the scope is unrestricted
func (s Scope) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// FilterRequest carries the caller-supplied list/export filters
type FilterRequest struct {
	Status     domain.Status
	AssignedTo string
	City       string
	State      string
	Query      string
}

// Policy decides what contractors a caller may see and change
type Policy struct {
	members MemberDirectory
	logger  *slog.Logger
}

// NewPolicy creates a Policy backed by a member directory
func NewPolicy(members MemberDirectory, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{members: members, logger: logger}
}

// Scope resolves the caller into a Scope. A non-admin actor that does not
// resolve to an active member gets a deny-all scope rather than an error.
func (p *Policy) Scope(ctx context.Context, caller CallerIdentity) (Scope, error) {
	scope := Scope{Actor: caller.Actor, Role: RoleMember}

	if caller.IsAdmin() {
		scope.Role = RoleAdmin
		self, err := p.members.ResolveActor(ctx, domain.AdminActor)
		switch {
		case err == nil:
			scope.SelfMemberID = self.ID
		case !errors.Is(err, domain.ErrNotFound):
			return Scope{}, fmt.Errorf("resolve admin member: %w", err)
		}
		return scope, nil
	}

	if strings.TrimSpace(caller.Actor) == "" {
		scope.DenyAll = true
		return scope, nil
	}

	member, err := p.members.ResolveActor(ctx, caller.Actor)
	if errors.Is(err, domain.ErrNotFound) {
		p.logger.Warn("unresolved actor, denying access", slog.String("actor", caller.Actor))
		scope.DenyAll = true
		return scope, nil
	}
	if err != nil {
		return Scope{}, fmt.Errorf("resolve member %q: %w", caller.Actor, err)
	}

	scope.SelfMemberID = member.ID
	scope.RestrictToAssigneeID = member.ID
	return scope, nil
}

// ContractorFilter builds the storage filter for list and export. Members are
// always pinned to their own assignments; any requested assignee is ignored.
func (p *Policy) ContractorFilter(scope Scope, req FilterRequest) domain.ContractorFilter {
	filter := domain.ContractorFilter{
		Status: req.Status,
		City:   strings.TrimSpace(req.City),
		State:  strings.TrimSpace(req.State),
		Query:  strings.TrimSpace(req.Query),
	}

	switch {
	case scope.DenyAll:
		filter.DenyAll = true
	case !scope.IsAdmin():
		if scope.RestrictToAssigneeID == "" {
			filter.DenyAll = true
		} else {
			filter.AssignedToID = scope.RestrictToAssigneeID
		}
	case req.AssignedTo == AssignedToSelf:
		filter.AssignedToID = scope.SelfMemberID
	default:
		filter.AssignedToID = strings.TrimSpace(req.AssignedTo)
	}
	return filter
}

// CanWrite checks whether the scope may mutate a contractor. Admins may change
// anything; members only records currently assigned to them.
func (p *Policy) CanWrite(scope Scope, contractor *domain.Contractor) error {
	if scope.IsAdmin() {
		return nil
	}
	if !scope.DenyAll && scope.RestrictToAssigneeID != "" && contractor.AssignedToID == scope.RestrictToAssigneeID {
		return nil
	}
	p.logger.Warn("contractor write denied",
		slog.String("actor", scope.Actor),
		slog.String("contractor_id", contractor.ID),
		slog.String("assigned_to", contractor.AssignedToID),
	)
	return fmt.Errorf("%w: %s may not modify contractor %s", domain.ErrForbidden, scope.Actor, contractor.ID)
}
