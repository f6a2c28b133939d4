package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/pkg/cache"
)

// MemberDirectory resolves actor names to active members through a cache
type MemberDirectory struct {
	members domain.MemberRepository
	cache   cache.Store
	ttl     time.Duration
	logger  *slog.Logger
}

// NewMemberDirectory wraps a member repository. A nil store disables caching.
func NewMemberDirectory(members domain.MemberRepository, store cache.Store, ttl time.Duration, logger *slog.Logger) *MemberDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberDirectory{members: members, cache: store, ttl: ttl, logger: logger}
}

// ResolveActor returns the active member called name, or domain.ErrNotFound
func (d *MemberDirectory) ResolveActor(ctx context.Context, name string) (*domain.Member, error) {
	key := "member:" + name
	if d.cache != nil {
		var cached domain.Member
		found, err := d.cache.Get(ctx, key, &cached)
		if err != nil {
			d.logger.Warn("member cache read failed", slog.String("error", err.Error()))
		}
		if found {
			return &cached, nil
		}
	}

	member, err := d.members.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup member %q: %w", name, err)
	}
	if !member.IsActive {
		return nil, fmt.Errorf("member %q is inactive: %w", name, domain.ErrNotFound)
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, member, d.ttl); err != nil {
			d.logger.Warn("member cache write failed", slog.String("error", err.Error()))
		}
	}
	return member, nil
}

// Forget drops a cached member so the next lookup reads through
func (d *MemberDirectory) Forget(ctx context.Context, name string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Delete(ctx, "member:"+name); err != nil {
		d.logger.Warn("member cache delete failed", slog.String("error", err.Error()))
	}
}

// Save upserts a member and evicts its cached entry
func (d *MemberDirectory) Save(ctx context.Context, m *domain.Member) error {
	if err := d.members.Upsert(ctx, m); err != nil {
		return fmt.Errorf("upsert member %q: %w", m.Name, err)
	}
	d.Forget(ctx, m.Name)
	return nil
}
