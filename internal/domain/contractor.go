package domain

import (
	"context"
	"time"
)

// Status is a contractor's position in the outreach pipeline
type Status string

const (
	StatusNotContacted  Status = "NOT_CONTACTED"
	StatusContacted     Status = "CONTACTED"
	StatusResponsive    Status = "RESPONSIVE"
	StatusQuoting       Status = "QUOTING"
	StatusContracted    Status = "CONTRACTED"
	StatusNonResponsive Status = "NON_RESPONSIVE"
)

// Statuses lists every pipeline status in pipeline order
var Statuses = []Status{
	StatusNotContacted,
	StatusContacted,
	StatusResponsive,
	StatusQuoting,
	StatusContracted,
	StatusNonResponsive,
}

// ParseStatus validates a raw status value
func ParseStatus(raw string) (Status, bool) {
	for _, s := range Statuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// ContactInfo is the optional contact bundle stored with a contractor
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Contractor represents a tracked lead
type Contractor struct {
	ID           string      `json:"id"`
	PlaceID      string      `json:"placeId,omitempty"` // empty when not imported from the places provider
	Name         string      `json:"name"`
	Address      string      `json:"address"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Zip          string      `json:"zip"`
	MainService  string      `json:"mainService"`
	Keywords     string      `json:"keywords"`
	Contact      ContactInfo `json:"contactInfo"`
	Status       Status      `json:"status"`
	AssignedToID string      `json:"assignedToId,omitempty"` // empty when unassigned
	Notes        string      `json:"notes"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Candidate is a normalized external record proposed for import
type Candidate struct {
	PlaceID     string      `json:"placeId,omitempty"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Zip         string      `json:"zip"`
	MainService string      `json:"main_service"`
	Keywords    string      `json:"keywords,omitempty"`
	Contact     ContactInfo `json:"contact_info"`
}

// ApplyTo copies the candidate's descriptive fields onto a contractor.
// The existing place id is kept unless the candidate carries one.
func (c Candidate) ApplyTo(dst *Contractor) {
	if c.PlaceID != "" {
		dst.PlaceID = c.PlaceID
	}
	dst.Name = c.Name
	dst.Address = c.Address
	dst.City = c.City
	dst.State = c.State
	dst.Zip = c.Zip
	dst.MainService = c.MainService
	dst.Keywords = c.Keywords
	dst.Contact = c.Contact
}

// ContractorFilter is the storage-level predicate for list, count and export.
// All set fields are ANDed; Query matches name OR keywords case-insensitively.
type ContractorFilter struct {
	Status       Status
	City         string
	State        string
	Query        string
	AssignedToID string
	// DenyAll matches nothing; used when the caller cannot be resolved
	DenyAll bool
}

// Page bounds a list query. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// ContractorChanges holds the staged mutable fields of a single update
type ContractorChanges struct {
	Status       *Status
	AssignedToID *string
	Notes        *string
}

// Empty reports whether nothing is staged
func (c ContractorChanges) Empty() bool {
	return c.Status == nil && c.AssignedToID == nil && c.Notes == nil
}

// ContractorRepository defines data access for contractors.
// Lookups return ErrNotFound on a miss; Create returns ErrConflict when the place id is taken.
type ContractorRepository interface {
	GetByID(ctx context.Context, id string) (*Contractor, error)
	GetByPlaceID(ctx context.Context, placeID string) (*Contractor, error)
	FindByNameAddress(ctx context.Context, name, address string) (*Contractor, error)
	Create(ctx context.Context, contractor *Contractor) error
	UpdateDetails(ctx context.Context, contractor *Contractor) error
	ApplyChanges(ctx context.Context, id string, changes ContractorChanges) error
	List(ctx context.Context, filter ContractorFilter, page Page) ([]*Contractor, error)
	Count(ctx context.Context, filter ContractorFilter) (int, error)
}
