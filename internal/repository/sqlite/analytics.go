package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
)

// AnalyticsRepository implements domain.AnalyticsRepository
type AnalyticsRepository struct {
	db *sql.DB
}

func (r *AnalyticsRepository) RecordTurn(ctx context.Context, userID uuid.UUID, promptLen int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_analytics (user_id, total_messages_sent, total_agent_responses, avg_message_length, last_active, updated_at)
		VALUES (?, 1, 1, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET avg_message_length = (avg_message_length * total_messages_sent + excluded.avg_message_length) / (total_messages_sent + 1),
		    total_messages_sent = total_messages_sent + 1,
		    total_agent_responses = total_agent_responses + 1,
		    last_active = excluded.last_active,
		    updated_at = excluded.updated_at
	`, userID, promptLen, toUnix(at), toUnix(at))
	if err != nil {
		return fmt.Errorf("failed to record turn analytics: %w", err)
	}
	return nil
}

// Refresh recounts from the source tables. Archived rows still count as
// created. The WHERE on the SELECT keeps
// SQLite from reading ON CONFLICT as a join constraint.
func (r *AnalyticsRepository) Refresh(ctx context.Context, userID uuid.UUID, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_analytics (user_id, total_sessions, session_count_last_7_days, ledger_entries_count,
		                            action_items_created, action_items_completed, updated_at)
		SELECT ?,
		       (SELECT COUNT(*) FROM chat_sessions WHERE user_id = ?),
		       (SELECT COUNT(*) FROM chat_sessions WHERE user_id = ? AND created_at >= ?),
		       (SELECT COUNT(*) FROM ledger_entries WHERE user_id = ?),
		       (SELECT COUNT(*) FROM action_items WHERE user_id = ?),
		       (SELECT COUNT(*) FROM action_items WHERE user_id = ? AND is_complete = 1),
		       ?
		WHERE true
		ON CONFLICT (user_id) DO UPDATE
		SET total_sessions = excluded.total_sessions,
		    session_count_last_7_days = excluded.session_count_last_7_days,
		    ledger_entries_count = excluded.ledger_entries_count,
		    action_items_created = excluded.action_items_created,
		    action_items_completed = excluded.action_items_completed,
		    updated_at = excluded.updated_at
	`, userID, userID, userID, toUnix(now.Add(-domain.AnalyticsWindow)), userID, userID, userID, toUnix(now))
	if err != nil {
		return fmt.Errorf("failed to refresh analytics: %w", err)
	}
	return nil
}

func (r *AnalyticsRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UserAnalytics, error) {
	var (
		a          domain.UserAnalytics
		lastActive sql.NullInt64
		updated    int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, total_messages_sent, total_agent_responses, avg_message_length, last_active,
		       total_sessions, session_count_last_7_days, ledger_entries_count,
		       action_items_created, action_items_completed, updated_at
		FROM user_analytics
		WHERE user_id = ?
	`, userID).Scan(
		&a.UserID,
		&a.MessagesSent,
		&a.AgentResponses,
		&a.AvgMessageLength,
		&lastActive,
		&a.SessionsTotal,
		&a.SessionsLast7Days,
		&a.LedgerEntries,
		&a.ActionItemsCreated,
		&a.ActionItemsCompleted,
		&updated,
	)
	if err != nil {
		return nil, notFound(err, "analytics")
	}
	a.LastActive = fromNullUnix(lastActive)
	a.UpdatedAt = fromUnix(updated)
	return &a, nil
}
