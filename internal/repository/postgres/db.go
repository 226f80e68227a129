package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the database connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection pool
func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// notFound maps pgx.ErrNoRows onto domain.ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// NewStore wires every postgres repository over the pool
func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Sessions:    NewSessionRepository(db.Pool),
		Turns:       NewTurnRepository(db.Pool),
		Fragments:   NewPromptFragmentRepository(db.Pool),
		Ledger:      NewLedgerRepository(db.Pool),
		ActionItems: NewActionItemRepository(db.Pool),
		Profiles:    NewProfileRepository(db.Pool),
		Settings:    NewAdminSettingRepository(db.Pool),
		Analytics:   NewAnalyticsRepository(db.Pool),
		Ping:        db.Ping,
		Close: func() error {
			db.Close()
			return nil
		},
	}
}
