package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTitle is used until the first prompt or the summary job names the session
const DefaultSessionTitle = "New Chat"

// ChatSession represents a conversation thread owned by one user
type ChatSession struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	FamilyID  *uuid.UUID `json:"family_id,omitempty"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasSummary reports whether the summary job has already named this session
func (s *ChatSession) HasSummary() bool {
	return s.Summary != ""
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, session *ChatSession) error
	Get(ctx context.Context, id uuid.UUID) (*ChatSession, error)
	// GetOwned returns ErrNotFound unless the session exists and belongs to userID
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*ChatSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, offset int) ([]ChatSession, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	UpdateTitleSummary(ctx context.Context, id uuid.UUID, title, summary string) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
