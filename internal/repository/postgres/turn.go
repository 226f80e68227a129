package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TurnRepository implements domain.TurnRepository
type TurnRepository struct {
	pool *pgxpool.Pool
}

// NewTurnRepository creates a new turn repository
func NewTurnRepository(pool *pgxpool.Pool) *TurnRepository {
	return &TurnRepository{pool: pool}
}

const turnColumns = `id, session_id, user_id, prompt_text, response_text, created_at`

// Create inserts a new turn
func (r *TurnRepository) Create(ctx context.Context, turn *domain.Turn) error {
	query := `
		INSERT INTO chat_turns (id, session_id, user_id, prompt_text, response_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		turn.ID,
		turn.SessionID,
		turn.UserID,
		turn.PromptText,
		turn.ResponseText,
		turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create turn: %w", err)
	}
	return nil
}

func (r *TurnRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Turn, error) {
	var t domain.Turn
	err := r.pool.QueryRow(ctx, `SELECT `+turnColumns+` FROM chat_turns WHERE id = $1`, id).Scan(
		&t.ID, &t.SessionID, &t.UserID, &t.PromptText, &t.ResponseText, &t.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "turn")
	}
	return &t, nil
}

// ListRecent retrieves the latest turns of a session in chronological order
func (r *TurnRepository) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error) {
	query := `
		SELECT ` + turnColumns + `
		FROM chat_turns
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	turns, err := r.list(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}

	// Reverse to return chronological order (oldest first)
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ListFirst retrieves the earliest turns of a session
func (r *TurnRepository) ListFirst(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error) {
	query := `
		SELECT ` + turnColumns + `
		FROM chat_turns
		WHERE session_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	return r.list(ctx, query, sessionID, limit)
}

func (r *TurnRepository) list(ctx context.Context, query string, args ...any) ([]domain.Turn, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	turns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Turn, error) {
		var t domain.Turn
		err := row.Scan(&t.ID, &t.SessionID, &t.UserID, &t.PromptText, &t.ResponseText, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan turn: %w", err)
	}
	return turns, nil
}

func (r *TurnRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_turns WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return n, nil
}

// GetMostFrequentPrompts retrieves the prompts a user sends most often
func (r *TurnRepository) GetMostFrequentPrompts(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	query := `
		SELECT prompt_text
		FROM chat_turns
		WHERE user_id = $1 AND prompt_text <> ''
		GROUP BY prompt_text
		ORDER BY COUNT(*) DESC, MAX(created_at) DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
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
