package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
)

// LedgerRepository implements domain.LedgerRepository
type LedgerRepository struct {
	db *sql.DB
}

const ledgerColumns = `id, user_id, source_turn_id, title, content, is_archived, archived_at, created_at, updated_at`

func scanLedgerEntry(row rowScanner) (domain.LedgerEntry, error) {
	var (
		e                domain.LedgerEntry
		archived         sql.NullInt64
		created, updated int64
	)
	err := row.Scan(&e.ID, &e.UserID, &e.SourceTurnID, &e.Title, &e.Content, &e.IsArchived, &archived, &created, &updated)
	e.ArchivedAt = fromNullUnix(archived)
	e.CreatedAt = fromUnix(created)
	e.UpdatedAt = fromUnix(updated)
	return e, err
}

func (r *LedgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, source_turn_id, title, content, is_archived, archived_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.SourceTurnID, e.Title, e.Content, e.IsArchived, toNullUnix(e.ArchivedAt), toUnix(e.CreatedAt), toUnix(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Get(ctx context.Context, id, userID uuid.UUID) (*domain.LedgerEntry, error) {
	e, err := scanLedgerEntry(r.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err, "ledger entry")
	}
	return &e, nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.ListFilter) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE user_id = ? AND (? OR is_archived = 0)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, userID, filter.IncludeArchived, limitOrAll(filter.Limit), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *LedgerRepository) Archive(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	return archiveRow(ctx, r.db, "ledger_entries", id, userID, at)
}

// archiveRow soft-deletes one owned row of an archivable table
func archiveRow(ctx context.Context, db *sql.DB, table string, id, userID uuid.UUID, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET is_archived = 1, archived_at = ?, updated_at = ? WHERE id = ? AND user_id = ?`, table)
	res, err := db.ExecContext(ctx, query, toUnix(at), toUnix(at), id, userID)
	if err != nil {
		return fmt.Errorf("failed to archive %s row: %w", table, err)
	}
	return requireAffected(res, "archive "+table+" row")
}
