package domain

import (
	"context"
	"time"
)

// PromptFragment is a named, toggleable block of system-instruction text.
// Lower SortOrder values are concatenated first.
type PromptFragment struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PromptFragmentUpsert represents an administrative edit of a fragment
type PromptFragmentUpsert struct {
	Name      string `json:"name" validate:"required,max=100"`
	Content   string `json:"content" validate:"required"`
	IsActive  *bool  `json:"is_active,omitempty"`
	SortOrder int    `json:"sort_order"`
}

// PromptFragmentRepository defines the interface for prompt fragment storage.
// Edits are applied in place; no history of prior versions is kept.
type PromptFragmentRepository interface {
	// ListActive returns active fragments ordered by sort order, then name
	ListActive(ctx context.Context) ([]PromptFragment, error)
	List(ctx context.Context) ([]PromptFragment, error)
	GetByName(ctx context.Context, name string) (*PromptFragment, error)
	Upsert(ctx context.Context, fragment *PromptFragment) error
	SetActive(ctx context.Context, name string, active bool) error
}
