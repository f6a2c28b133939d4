package domain

import (
	"context"
	"time"
)

// ActivityAction identifies what an activity log entry records
type ActivityAction string

const (
	ActionImport       ActivityAction = "IMPORT"
	ActionStatusChange ActivityAction = "STATUS_CHANGE"
	ActionAssignChange ActivityAction = "ASSIGN_CHANGE"
	ActionNotesEdit    ActivityAction = "NOTES_EDIT"
)

// ActivityLogEntry is an immutable audit record. Empty optional fields are stored as NULL.
type ActivityLogEntry struct {
	ID           string         `json:"id"`
	Actor        string         `json:"actor"`
	Action       ActivityAction `json:"action"`
	ContractorID string         `json:"contractorId,omitempty"`
	FromStatus   Status         `json:"fromStatus,omitempty"`
	ToStatus     Status         `json:"toStatus,omitempty"`
	FromAssignee string         `json:"fromAssignee,omitempty"`
	ToAssignee   string         `json:"toAssignee,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// ActivityQuery filters the activity feed
type ActivityQuery struct {
	ContractorID string
	Actor        string
	Limit        int
}

// ActivityRepository is append-only
type ActivityRepository interface {
	Append(ctx context.Context, entry *ActivityLogEntry) error
	List(ctx context.Context, query ActivityQuery) ([]*ActivityLogEntry, error)
}
