package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository implements domain.ProfileRepository
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, username, sport, position, graduation_year, has_seen_welcome, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`
	var (
		p        domain.UserProfile
		sport    *string
		position *string
		gradYear *int
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Username,
		&sport,
		&position,
		&gradYear,
		&p.HasSeenWelcome,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "profile")
	}

	if sport != nil && *sport != "" {
		p.Athlete = &domain.AthleteProfile{Sport: *sport, GraduationYear: gradYear}
		if position != nil {
			p.Athlete.Position = *position
		}
	}
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.UserProfile) error {
	var (
		sport    *string
		position *string
		gradYear *int
	)
	if p.Athlete != nil {
		sport = &p.Athlete.Sport
		if p.Athlete.Position != "" {
			position = &p.Athlete.Position
		}
		gradYear = p.Athlete.GraduationYear
	}

	query := `
		INSERT INTO user_profiles (user_id, username, sport, position, graduation_year, has_seen_welcome, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    sport = EXCLUDED.sport,
		    position = EXCLUDED.position,
		    graduation_year = EXCLUDED.graduation_year,
		    has_seen_welcome = EXCLUDED.has_seen_welcome,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query, p.UserID, p.Username, sport, position, gradYear, p.HasSeenWelcome, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) MarkWelcomeSeen(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_profiles SET has_seen_welcome = TRUE, updated_at = NOW() WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdminSettingRepository implements domain.AdminSettingRepository
type AdminSettingRepository struct {
	pool *pgxpool.Pool
}

// NewAdminSettingRepository creates a new admin setting repository
func NewAdminSettingRepository(pool *pgxpool.Pool) *AdminSettingRepository {
	return &AdminSettingRepository{pool: pool}
}

func (r *AdminSettingRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.AdminSetting, error) {
	var s domain.AdminSetting
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, untethered_mode, updated_at FROM admin_settings WHERE user_id = $1`,
		userID,
	).Scan(&s.UserID, &s.UntetheredMode, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "admin setting")
	}
	return &s, nil
}

func (r *AdminSettingRepository) Set(ctx context.Context, s *domain.AdminSetting) error {
	query := `
		INSERT INTO admin_settings (user_id, untethered_mode, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET untethered_mode = EXCLUDED.untethered_mode,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, s.UserID, s.UntetheredMode, s.UpdatedAt); err != nil {
		return fmt.Errorf("failed to set admin setting: %w", err)
	}
	return nil
}
