package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

// In-memory repositories back tests and local development without PostgreSQL.
// They enforce the same uniqueness rules as the schema.

type memContractor struct {
	domain.Contractor
	seq int64
}

// MemoryContractorRepository implements domain.ContractorRepository in memory
type MemoryContractorRepository struct {
	mu      sync.RWMutex
	byID    map[string]*memContractor
	byPlace map[string]string
	seq     int64
	now     func() time.Time
}

func NewMemoryContractorRepository() *MemoryContractorRepository {
	return &MemoryContractorRepository{
		byID:    map[string]*memContractor{},
		byPlace: map[string]string{},
		now:     time.Now,
	}
}

func (r *MemoryContractorRepository) GetByID(_ context.Context, id string) (*domain.Contractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("contractor %s: %w", id, domain.ErrNotFound)
	}
	copied := c.Contractor
	return &copied, nil
}

func (r *MemoryContractorRepository) GetByPlaceID(ctx context.Context, placeID string) (*domain.Contractor, error) {
	r.mu.RLock()
	id, ok := r.byPlace[placeID]
	r.mu.RUnlock()
	if !ok || placeID == "" {
		return nil, fmt.Errorf("contractor with place id %q: %w", placeID, domain.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryContractorRepository) FindByNameAddress(_ context.Context, name, address string) (*domain.Contractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *memContractor
	for _, c := range r.byID {
		if c.Name == name && c.Address == address && (found == nil || c.seq < found.seq) {
			found = c
		}
	}
	if found == nil {
		return nil, fmt.Errorf("contractor %q: %w", name, domain.ErrNotFound)
	}
	copied := found.Contractor
	return &copied, nil
}

func (r *MemoryContractorRepository) Create(_ context.Context, c *domain.Contractor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.PlaceID != "" {
		if _, taken := r.byPlace[c.PlaceID]; taken {
			return fmt.Errorf("contractor with place id %q: %w", c.PlaceID, domain.ErrConflict)
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.StatusNotContacted
	}
	now := r.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.seq++
	r.byID[c.ID] = &memContractor{Contractor: *c, seq: r.seq}
	if c.PlaceID != "" {
		r.byPlace[c.PlaceID] = c.ID
	}
	return nil
}

func (r *MemoryContractorRepository) UpdateDetails(_ context.Context, c *domain.Contractor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[c.ID]
	if !ok {
		return fmt.Errorf("contractor %s: %w", c.ID, domain.ErrNotFound)
	}
	if c.PlaceID != "" && c.PlaceID != stored.PlaceID {
		if owner, taken := r.byPlace[c.PlaceID]; taken && owner != c.ID {
			return fmt.Errorf("contractor with place id %q: %w", c.PlaceID, domain.ErrConflict)
		}
	}
	if stored.PlaceID != c.PlaceID {
		delete(r.byPlace, stored.PlaceID)
		if c.PlaceID != "" {
			r.byPlace[c.PlaceID] = c.ID
		}
	}

	stored.PlaceID = c.PlaceID
	stored.Name = c.Name
	stored.Address = c.Address
	stored.City = c.City
	stored.State = c.State
	stored.Zip = c.Zip
	stored.MainService = c.MainService
	stored.Keywords = c.Keywords
	stored.Contact = c.Contact
	stored.UpdatedAt = r.now()
	c.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *MemoryContractorRepository) ApplyChanges(_ context.Context, id string, changes domain.ContractorChanges) error {
	if changes.Empty() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("contractor %s: %w", id, domain.ErrNotFound)
	}
	if changes.Status != nil {
		stored.Status = *changes.Status
	}
	if changes.AssignedToID != nil {
		stored.AssignedToID = *changes.AssignedToID
	}
	if changes.Notes != nil {
		stored.Notes = *changes.Notes
	}
	stored.UpdatedAt = r.now()
	return nil
}

func (r *MemoryContractorRepository) List(_ context.Context, filter domain.ContractorFilter, page domain.Page) ([]*domain.Contractor, error) {
	matched := r.matching(filter)
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	out := make([]*domain.Contractor, len(matched))
	for i := range matched {
		out[i] = &matched[i].Contractor
	}
	return out, nil
}

func (r *MemoryContractorRepository) Count(_ context.Context, filter domain.ContractorFilter) (int, error) {
	return len(r.matching(filter)), nil
}

// matching returns copies of the matches, newest first. Copies are taken under
// the read lock so callers never touch stored records.
func (r *MemoryContractorRepository) matching(f domain.ContractorFilter) []memContractor {
	if f.DenyAll {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	query := strings.ToLower(f.Query)
	var out []memContractor
	for _, c := range r.byID {
		switch {
		case f.Status != "" && c.Status != f.Status:
			continue
		case f.City != "" && c.City != f.City:
			continue
		case f.State != "" && c.State != f.State:
			continue
		case f.AssignedToID != "" && c.AssignedToID != f.AssignedToID:
			continue
		case query != "" &&
			!strings.Contains(strings.ToLower(c.Name), query) &&
			!strings.Contains(strings.ToLower(c.Keywords), query):
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

// MemoryMemberRepository implements domain.MemberRepository in memory
type MemoryMemberRepository struct {
	mu      sync.RWMutex
	members map[string]*domain.Member
}

func NewMemoryMemberRepository() *MemoryMemberRepository {
	return &MemoryMemberRepository{members: map[string]*domain.Member{}}
}

func (r *MemoryMemberRepository) GetByID(_ context.Context, id string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	copied := *m
	return &copied, nil
}

func (r *MemoryMemberRepository) GetByName(_ context.Context, name string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.Name == name {
			copied := *m
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("member %q: %w", name, domain.ErrNotFound)
}

func (r *MemoryMemberRepository) ListActive(_ context.Context) ([]*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Member
	for _, m := range r.members {
		if m.IsActive {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryMemberRepository) Upsert(_ context.Context, m *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.Name == m.Name {
			existing.IsActive = m.IsActive
			m.ID, m.CreatedAt = existing.ID, existing.CreatedAt
			return nil
		}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now()
	copied := *m
	r.members[m.ID] = &copied
	return nil
}

// MemoryActivityRepository implements domain.ActivityRepository in memory
type MemoryActivityRepository struct {
	mu      sync.RWMutex
	entries []*domain.ActivityLogEntry
}

func NewMemoryActivityRepository() *MemoryActivityRepository {
	return &MemoryActivityRepository{}
}

func (r *MemoryActivityRepository) Append(_ context.Context, e *domain.ActivityLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now()
	copied := *e
	r.entries = append(r.entries, &copied)
	return nil
}

// List returns entries newest first
func (r *MemoryActivityRepository) List(_ context.Context, q domain.ActivityQuery) ([]*domain.ActivityLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.ActivityLogEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if q.ContractorID != "" && e.ContractorID != q.ContractorID {
			continue
		}
		if q.Actor != "" && e.Actor != q.Actor {
			continue
		}
		copied := *e
		out = append(out, &copied)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// MemoryNotificationRepository implements domain.NotificationRepository in memory
type MemoryNotificationRepository struct {
	mu    sync.RWMutex
	items []*domain.Notification
	now   func() time.Time
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{now: time.Now}
}

func (r *MemoryNotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = r.now()
	copied := *n
	r.items = append(r.items, &copied)
	return nil
}

func (r *MemoryNotificationRepository) ListRecent(_ context.Context, limit int) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Notification
	for i := len(r.items) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		copied := *r.items[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *MemoryNotificationRepository) CountUnread(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, item := range r.items {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

func (r *MemoryNotificationRepository) MarkAllRead(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if !item.Read {
			item.Read = true
			n++
		}
	}
	return n, nil
}

func (r *MemoryNotificationRepository) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	var removed int64
	for _, item := range r.items {
		if item.Read && item.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return removed, nil
}
