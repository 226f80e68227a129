package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
)

// PromptFragmentRepository implements domain.PromptFragmentRepository
type PromptFragmentRepository struct {
	db *sql.DB
}

const fragmentColumns = `id, name, content, is_active, sort_order, updated_at`

func scanFragment(row rowScanner) (domain.PromptFragment, error) {
	var (
		f       domain.PromptFragment
		updated int64
	)
	err := row.Scan(&f.ID, &f.Name, &f.Content, &f.IsActive, &f.SortOrder, &updated)
	f.UpdatedAt = fromUnix(updated)
	return f, err
}

func (r *PromptFragmentRepository) query(ctx context.Context, query string, args ...any) ([]domain.PromptFragment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt fragments: %w", err)
	}
	defer rows.Close()

	var fragments []domain.PromptFragment
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt fragment: %w", err)
		}
		fragments = append(fragments, f)
	}
	return fragments, rows.Err()
}

func (r *PromptFragmentRepository) ListActive(ctx context.Context) ([]domain.PromptFragment, error) {
	return r.query(ctx, `SELECT `+fragmentColumns+` FROM prompt_fragments WHERE is_active = 1 ORDER BY sort_order, name`)
}

func (r *PromptFragmentRepository) List(ctx context.Context) ([]domain.PromptFragment, error) {
	return r.query(ctx, `SELECT `+fragmentColumns+` FROM prompt_fragments ORDER BY sort_order, name`)
}

func (r *PromptFragmentRepository) GetByName(ctx context.Context, name string) (*domain.PromptFragment, error) {
	f, err := scanFragment(r.db.QueryRowContext(ctx, `SELECT `+fragmentColumns+` FROM prompt_fragments WHERE name = ?`, name))
	if err != nil {
		return nil, notFound(err, "prompt fragment")
	}
	return &f, nil
}

func (r *PromptFragmentRepository) Upsert(ctx context.Context, f *domain.PromptFragment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO prompt_fragments (name, content, is_active, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET content = excluded.content,
		    is_active = excluded.is_active,
		    sort_order = excluded.sort_order,
		    updated_at = excluded.updated_at
		RETURNING id
	`, f.Name, f.Content, f.IsActive, f.SortOrder, toUnix(f.UpdatedAt)).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert prompt fragment: %w", err)
	}
	return nil
}

func (r *PromptFragmentRepository) SetActive(ctx context.Context, name string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE prompt_fragments SET is_active = ?, updated_at = ? WHERE name = ?`,
		active, toUnix(time.Now()), name)
	if err != nil {
		return fmt.Errorf("failed to update prompt fragment: %w", err)
	}
	return requireAffected(res, "update prompt fragment")
}
