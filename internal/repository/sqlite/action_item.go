package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
)

// ActionItemRepository implements domain.ActionItemRepository
type ActionItemRepository struct {
	db *sql.DB
}

const actionItemColumns = `id, user_id, source_ledger_entry_id, description, is_complete, priority, due_date, is_archived, archived_at, created_at, updated_at`

func scanActionItem(row rowScanner) (domain.ActionItem, error) {
	var (
		a                domain.ActionItem
		due, archived    sql.NullInt64
		created, updated int64
	)
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.SourceLedgerEntryID,
		&a.Description,
		&a.IsComplete,
		&a.Priority,
		&due,
		&a.IsArchived,
		&archived,
		&created,
		&updated,
	)
	a.DueDate = fromNullUnix(due)
	a.ArchivedAt = fromNullUnix(archived)
	a.CreatedAt = fromUnix(created)
	a.UpdatedAt = fromUnix(updated)
	return a, err
}

// CreateBatch inserts all items in one transaction
func (r *ActionItemRepository) CreateBatch(ctx context.Context, items []domain.ActionItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO action_items (id, user_id, source_ledger_entry_id, description, is_complete, priority, due_date, is_archived, archived_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range items {
		_, err := stmt.ExecContext(ctx,
			a.ID,
			a.UserID,
			a.SourceLedgerEntryID,
			a.Description,
			a.IsComplete,
			a.Priority,
			toNullUnix(a.DueDate),
			a.IsArchived,
			toNullUnix(a.ArchivedAt),
			toUnix(a.CreatedAt),
			toUnix(a.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to create action item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit action items: %w", err)
	}
	return nil
}

func (r *ActionItemRepository) Get(ctx context.Context, id, userID uuid.UUID) (*domain.ActionItem, error) {
	a, err := scanActionItem(r.db.QueryRowContext(ctx,
		`SELECT `+actionItemColumns+` FROM action_items WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err, "action item")
	}
	return &a, nil
}

func (r *ActionItemRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.ListFilter) ([]domain.ActionItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+actionItemColumns+`
		FROM action_items
		WHERE user_id = ? AND (? OR is_archived = 0)
		ORDER BY priority ASC, created_at ASC, rowid ASC
		LIMIT ? OFFSET ?
	`, userID, filter.IncludeArchived, limitOrAll(filter.Limit), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list action items: %w", err)
	}
	defer rows.Close()

	var items []domain.ActionItem
	for rows.Next() {
		a, err := scanActionItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action item: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *ActionItemRepository) Update(ctx context.Context, a *domain.ActionItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE action_items
		SET is_complete = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, a.IsComplete, a.Priority, toNullUnix(a.DueDate), toUnix(a.UpdatedAt), a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("failed to update action item: %w", err)
	}
	return requireAffected(res, "update action item")
}

func (r *ActionItemRepository) Archive(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	return archiveRow(ctx, r.db, "action_items", id, userID, at)
}
