package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Turn is one persisted prompt/response pair inside a session
type Turn struct {
	ID           uuid.UUID  `json:"id"`
	SessionID    uuid.UUID  `json:"session_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	PromptText   string     `json:"prompt_text"`
	ResponseText string     `json:"response_text"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HistoryEntry is one side of a turn as rendered for session history views
type HistoryEntry struct {
	Type      string    `json:"type"` // "user" or "model"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnRepository defines the interface for turn storage.
// Every list method returns turns in chronological order.
type TurnRepository interface {
	Create(ctx context.Context, turn *Turn) error
	Get(ctx context.Context, id uuid.UUID) (*Turn, error)
	// ListRecent returns the most recent limit turns of a session, oldest first
	ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]Turn, error)
	// ListFirst returns the earliest limit turns of a session
	ListFirst(ctx context.Context, sessionID uuid.UUID, limit int) ([]Turn, error)
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error)
	GetMostFrequentPrompts(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)
}
