package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultActionItemPriority is assigned to generated action items
const DefaultActionItemPriority = 2

// ActionItem is a short completable task, usually derived from a ledger entry
type ActionItem struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              uuid.UUID  `json:"user_id"`
	SourceLedgerEntryID *uuid.UUID `json:"source_ledger_entry_id,omitempty"`
	Description         string     `json:"description"`
	IsComplete          bool       `json:"is_complete"`
	Priority            int        `json:"priority"` // lower is more urgent
	DueDate             *time.Time `json:"due_date,omitempty"`
	Archivable
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActionItemUpdate represents a partial update of an action item
type ActionItemUpdate struct {
	IsComplete *bool      `json:"is_complete,omitempty"`
	Priority   *int       `json:"priority,omitempty" validate:"omitempty,min=1,max=5"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// ActionItemRepository defines the interface for action item storage
type ActionItemRepository interface {
	// CreateBatch stores all items atomically; either every item is stored or none is
	CreateBatch(ctx context.Context, items []ActionItem) error
	Get(ctx context.Context, id, userID uuid.UUID) (*ActionItem, error)
	// ListByUser orders by priority, then creation time
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]ActionItem, error)
	Update(ctx context.Context, item *ActionItem) error
	Archive(ctx context.Context, id, userID uuid.UUID, at time.Time) error
}
