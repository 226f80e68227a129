package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PromptFragmentRepository implements domain.PromptFragmentRepository
type PromptFragmentRepository struct {
	pool *pgxpool.Pool
}

// NewPromptFragmentRepository creates a new prompt fragment repository
func NewPromptFragmentRepository(pool *pgxpool.Pool) *PromptFragmentRepository {
	return &PromptFragmentRepository{pool: pool}
}

const fragmentColumns = `id, name, content, is_active, sort_order, updated_at`

func collectFragments(rows pgx.Rows) ([]domain.PromptFragment, error) {
	fragments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PromptFragment, error) {
		var f domain.PromptFragment
		err := row.Scan(&f.ID, &f.Name, &f.Content, &f.IsActive, &f.SortOrder, &f.UpdatedAt)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan prompt fragment: %w", err)
	}
	return fragments, nil
}

func (r *PromptFragmentRepository) ListActive(ctx context.Context) ([]domain.PromptFragment, error) {
	query := `
		SELECT ` + fragmentColumns + `
		FROM prompt_fragments
		WHERE is_active
		ORDER BY sort_order, name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt fragments: %w", err)
	}
	return collectFragments(rows)
}

func (r *PromptFragmentRepository) List(ctx context.Context) ([]domain.PromptFragment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fragmentColumns+` FROM prompt_fragments ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt fragments: %w", err)
	}
	return collectFragments(rows)
}

func (r *PromptFragmentRepository) GetByName(ctx context.Context, name string) (*domain.PromptFragment, error) {
	var f domain.PromptFragment
	err := r.pool.QueryRow(ctx, `SELECT `+fragmentColumns+` FROM prompt_fragments WHERE name = $1`, name).Scan(
		&f.ID, &f.Name, &f.Content, &f.IsActive, &f.SortOrder, &f.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "prompt fragment")
	}
	return &f, nil
}

// Upsert inserts or edits a fragment in place by name
func (r *PromptFragmentRepository) Upsert(ctx context.Context, f *domain.PromptFragment) error {
	query := `
		INSERT INTO prompt_fragments (name, content, is_active, sort_order, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET content = EXCLUDED.content,
		    is_active = EXCLUDED.is_active,
		    sort_order = EXCLUDED.sort_order,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query, f.Name, f.Content, f.IsActive, f.SortOrder, f.UpdatedAt).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert prompt fragment: %w", err)
	}
	return nil
}

func (r *PromptFragmentRepository) SetActive(ctx context.Context, name string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE prompt_fragments SET is_active = $1, updated_at = NOW() WHERE name = $2`,
		active, name,
	)
	if err != nil {
		return fmt.Errorf("failed to update prompt fragment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
