// Package sqlite is the embedded single-node store. Timestamps are kept
// as unix nanoseconds so ordering stays exact.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/repository"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DB provides the embedded database connection
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers well, and :memory: is per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping verifies the connection
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// NewStore wires every sqlite repository over the connection
func NewStore(d *DB) *repository.Store {
	return &repository.Store{
		Sessions:    &SessionRepository{db: d.db},
		Turns:       &TurnRepository{db: d.db},
		Fragments:   &PromptFragmentRepository{db: d.db},
		Ledger:      &LedgerRepository{db: d.db},
		ActionItems: &ActionItemRepository{db: d.db},
		Profiles:    &ProfileRepository{db: d.db},
		Settings:    &AdminSettingRepository{db: d.db},
		Analytics:   &AnalyticsRepository{db: d.db},
		Ping:        d.Ping,
		Close:       d.Close,
	}
}

// SeedFragments inserts fragments that do not exist yet
func (d *DB) SeedFragments(ctx context.Context, fragments []domain.PromptFragment) error {
	for _, f := range fragments {
		_, err := d.db.ExecContext(ctx, `
			INSERT INTO prompt_fragments (name, content, is_active, sort_order, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (name) DO NOTHING
		`, f.Name, f.Content, f.IsActive, f.SortOrder, toUnix(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to seed fragment %s: %w", f.Name, err)
		}
	}
	return nil
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func toNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullUnix(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromUnix(n.Int64)
	return &t
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// limitOrAll maps a zero limit onto SQLite's "no limit"
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
