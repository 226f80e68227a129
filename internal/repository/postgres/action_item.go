package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionItemRepository implements domain.ActionItemRepository
type ActionItemRepository struct {
	pool *pgxpool.Pool
}

// NewActionItemRepository creates a new action item repository
func NewActionItemRepository(pool *pgxpool.Pool) *ActionItemRepository {
	return &ActionItemRepository{pool: pool}
}

const actionItemColumns = `id, user_id, source_ledger_entry_id, description, is_complete, priority, due_date, is_archived, archived_at, created_at, updated_at`

func scanActionItem(row pgx.Row) (domain.ActionItem, error) {
	var a domain.ActionItem
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.SourceLedgerEntryID,
		&a.Description,
		&a.IsComplete,
		&a.Priority,
		&a.DueDate,
		&a.IsArchived,
		&a.ArchivedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// CreateBatch inserts all items in one transaction
func (r *ActionItemRepository) CreateBatch(ctx context.Context, items []domain.ActionItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO action_items (id, user_id, source_ledger_entry_id, description, is_complete, priority, due_date, is_archived, archived_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	batch := &pgx.Batch{}
	for _, a := range items {
		batch.Queue(query,
			a.ID,
			a.UserID,
			a.SourceLedgerEntryID,
			a.Description,
			a.IsComplete,
			a.Priority,
			a.DueDate,
			a.IsArchived,
			a.ArchivedAt,
			a.CreatedAt,
			a.UpdatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to create action items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit action items: %w", err)
	}
	return nil
}

func (r *ActionItemRepository) Get(ctx context.Context, id, userID uuid.UUID) (*domain.ActionItem, error) {
	query := `SELECT ` + actionItemColumns + ` FROM action_items WHERE id = $1 AND user_id = $2`
	a, err := scanActionItem(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, notFound(err, "action item")
	}
	return &a, nil
}

func (r *ActionItemRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.ListFilter) ([]domain.ActionItem, error) {
	query := `
		SELECT ` + actionItemColumns + `
		FROM action_items
		WHERE user_id = $1 AND ($2 OR NOT is_archived)
		ORDER BY priority ASC, created_at ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, userID, filter.IncludeArchived, limitOrAll(filter.Limit), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list action items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ActionItem, error) {
		return scanActionItem(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan action item: %w", err)
	}
	return items, nil
}

func (r *ActionItemRepository) Update(ctx context.Context, a *domain.ActionItem) error {
	query := `
		UPDATE action_items
		SET is_complete = $1, priority = $2, due_date = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`
	tag, err := r.pool.Exec(ctx, query, a.IsComplete, a.Priority, a.DueDate, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("failed to update action item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ActionItemRepository) Archive(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	return archiveRow(ctx, r.pool, "action_items", id, userID, at)
}
