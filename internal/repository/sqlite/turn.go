package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
)

// TurnRepository implements domain.TurnRepository
type TurnRepository struct {
	db *sql.DB
}

const turnColumns = `id, session_id, user_id, prompt_text, response_text, created_at`

func scanTurn(row rowScanner) (domain.Turn, error) {
	var (
		t       domain.Turn
		created int64
	)
	err := row.Scan(&t.ID, &t.SessionID, &t.UserID, &t.PromptText, &t.ResponseText, &created)
	t.CreatedAt = fromUnix(created)
	return t, err
}

func (r *TurnRepository) Create(ctx context.Context, t *domain.Turn) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_turns (id, session_id, user_id, prompt_text, response_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.SessionID, t.UserID, t.PromptText, t.ResponseText, toUnix(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create turn: %w", err)
	}
	return nil
}

func (r *TurnRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Turn, error) {
	t, err := scanTurn(r.db.QueryRowContext(ctx, `SELECT `+turnColumns+` FROM chat_turns WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "turn")
	}
	return &t, nil
}

func (r *TurnRepository) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error) {
	turns, err := r.list(ctx, `
		SELECT `+turnColumns+`
		FROM chat_turns
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}

	// Reverse to return chronological order (oldest first)
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (r *TurnRepository) ListFirst(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error) {
	return r.list(ctx, `
		SELECT `+turnColumns+`
		FROM chat_turns
		WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`, sessionID, limit)
}

func (r *TurnRepository) list(ctx context.Context, query string, args ...any) ([]domain.Turn, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (r *TurnRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_turns WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return n, nil
}

func (r *TurnRepository) GetMostFrequentPrompts(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT prompt_text
		FROM chat_turns
		WHERE user_id = ? AND prompt_text <> ''
		GROUP BY prompt_text
		ORDER BY COUNT(*) DESC, MAX(created_at) DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query frequent prompts: %w", err)
	}
	defer rows.Close()

	var prompts []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}
