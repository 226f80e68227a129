package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AnalyticsWindow is the look-back of SessionsLast7Days
const AnalyticsWindow = 7 * 24 * time.Hour

// UserAnalytics holds the engagement counters of one user
type UserAnalytics struct {
	UserID               uuid.UUID  `json:"user_id"`
	MessagesSent         int        `json:"total_messages_sent"`
	AgentResponses       int        `json:"total_agent_responses"`
	AvgMessageLength     int        `json:"avg_message_length"`
	LastActive           *time.Time `json:"last_active,omitempty"`
	SessionsTotal        int        `json:"total_sessions"`
	SessionsLast7Days    int        `json:"session_count_last_7_days"`
	LedgerEntries        int        `json:"ledger_entries_count"`
	ActionItemsCreated   int        `json:"action_items_created"`
	ActionItemsCompleted int        `json:"action_items_completed"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// AnalyticsRepository maintains UserAnalytics rows. Both writers create
// the row on first use.
type AnalyticsRepository interface {
	// RecordTurn counts one answered prompt of promptLen characters
	RecordTurn(ctx context.Context, userID uuid.UUID, promptLen int, at time.Time) error
	// Refresh recounts sessions, live ledger entries and live action items
	Refresh(ctx context.Context, userID uuid.UUID, now time.Time) error
	Get(ctx context.Context, userID uuid.UUID) (*UserAnalytics, error)
}
