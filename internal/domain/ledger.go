package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LedgerEntry is a user-curated insight saved from an assistant response
type LedgerEntry struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	SourceTurnID *uuid.UUID `json:"source_turn_id,omitempty"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Archivable
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerEntryCreate represents a request to save an insight
type LedgerEntryCreate struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Content      string     `json:"content"`
	SourceTurnID *uuid.UUID `json:"source_turn_id,omitempty"`
}

// LedgerRepository defines the interface for ledger storage
type LedgerRepository interface {
	Create(ctx context.Context, entry *LedgerEntry) error
	// Get returns ErrNotFound unless the entry belongs to userID
	Get(ctx context.Context, id, userID uuid.UUID) (*LedgerEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]LedgerEntry, error)
	Archive(ctx context.Context, id, userID uuid.UUID, at time.Time) error
}
