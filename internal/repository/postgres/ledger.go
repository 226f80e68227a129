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

// LedgerRepository implements domain.LedgerRepository
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const ledgerColumns = `id, user_id, source_turn_id, title, content, is_archived, archived_at, created_at, updated_at`

func scanLedgerEntry(row pgx.Row) (domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.SourceTurnID,
		&e.Title,
		&e.Content,
		&e.IsArchived,
		&e.ArchivedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (r *LedgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, user_id, source_turn_id, title, content, is_archived, archived_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.SourceTurnID,
		e.Title,
		e.Content,
		e.IsArchived,
		e.ArchivedAt,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Get(ctx context.Context, id, userID uuid.UUID) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1 AND user_id = $2`
	e, err := scanLedgerEntry(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, notFound(err, "ledger entry")
	}
	return &e, nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.ListFilter) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE user_id = $1 AND ($2 OR NOT is_archived)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, userID, filter.IncludeArchived, limitOrAll(filter.Limit), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerEntry, error) {
		return scanLedgerEntry(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) Archive(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	return archiveRow(ctx, r.pool, "ledger_entries", id, userID, at)
}

// limitOrAll turns a zero limit into no limit
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

// archiveRow soft-deletes one owned row of an archivable table
func archiveRow(ctx context.Context, pool *pgxpool.Pool, table string, id, userID uuid.UUID, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_archived = TRUE, archived_at = $1, updated_at = $1
		WHERE id = $2 AND user_id = $3
	`, table)
	tag, err := pool.Exec(ctx, query, at, id, userID)
	if err != nil {
		return fmt.Errorf("failed to archive %s row: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
