package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyticsRepository implements domain.AnalyticsRepository
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

func (r *AnalyticsRepository) RecordTurn(ctx context.Context, userID uuid.UUID, promptLen int, at time.Time) error {
	query := `
		INSERT INTO user_analytics (user_id, total_messages_sent, total_agent_responses, avg_message_length, last_active, updated_at)
		VALUES ($1, 1, 1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET avg_message_length = (user_analytics.avg_message_length * user_analytics.total_messages_sent + EXCLUDED.avg_message_length)
		                         / (user_analytics.total_messages_sent + 1),
		    total_messages_sent = user_analytics.total_messages_sent + 1,
		    total_agent_responses = user_analytics.total_agent_responses + 1,
		    last_active = EXCLUDED.last_active,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, userID, promptLen, at); err != nil {
		return fmt.Errorf("failed to record turn analytics: %w", err)
	}
	return nil
}

func (r *AnalyticsRepository) Refresh(ctx context.Context, userID uuid.UUID, now time.Time) error {
	query := `
		INSERT INTO user_analytics (user_id, total_sessions, session_count_last_7_days, ledger_entries_count,
		                            action_items_created, action_items_completed, updated_at)
		SELECT $1::uuid,
		       (SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1::uuid),
		       (SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1::uuid AND created_at >= $2::timestamptz),
		       (SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1::uuid),
		       (SELECT COUNT(*) FROM action_items WHERE user_id = $1::uuid),
		       (SELECT COUNT(*) FROM action_items WHERE user_id = $1::uuid AND is_complete),
		       $3::timestamptz
		ON CONFLICT (user_id) DO UPDATE
		SET total_sessions = EXCLUDED.total_sessions,
		    session_count_last_7_days = EXCLUDED.session_count_last_7_days,
		    ledger_entries_count = EXCLUDED.ledger_entries_count,
		    action_items_created = EXCLUDED.action_items_created,
		    action_items_completed = EXCLUDED.action_items_completed,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, userID, now.Add(-domain.AnalyticsWindow), now); err != nil {
		return fmt.Errorf("failed to refresh analytics: %w", err)
	}
	return nil
}

func (r *AnalyticsRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UserAnalytics, error) {
	query := `
		SELECT user_id, total_messages_sent, total_agent_responses, avg_message_length, last_active,
		       total_sessions, session_count_last_7_days, ledger_entries_count,
		       action_items_created, action_items_completed, updated_at
		FROM user_analytics
		WHERE user_id = $1
	`
	var a domain.UserAnalytics
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&a.UserID,
		&a.MessagesSent,
		&a.AgentResponses,
		&a.AvgMessageLength,
		&a.LastActive,
		&a.SessionsTotal,
		&a.SessionsLast7Days,
		&a.LedgerEntries,
		&a.ActionItemsCreated,
		&a.ActionItemsCompleted,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "analytics")
	}
	return &a, nil
}
