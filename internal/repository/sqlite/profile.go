package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
)

// ProfileRepository implements domain.ProfileRepository
type ProfileRepository struct {
	db *sql.DB
}

func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	var (
		p        domain.UserProfile
		sport    sql.NullString
		position sql.NullString
		gradYear sql.NullInt64
		updated  int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, sport, position, graduation_year, has_seen_welcome, updated_at
		FROM user_profiles
		WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.Username, &sport, &position, &gradYear, &p.HasSeenWelcome, &updated)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	p.UpdatedAt = fromUnix(updated)

	if sport.Valid && sport.String != "" {
		p.Athlete = &domain.AthleteProfile{Sport: sport.String, Position: position.String}
		if gradYear.Valid {
			y := int(gradYear.Int64)
			p.Athlete.GraduationYear = &y
		}
	}
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.UserProfile) error {
	var (
		sport    sql.NullString
		position sql.NullString
		gradYear sql.NullInt64
	)
	if p.Athlete != nil {
		sport = sql.NullString{String: p.Athlete.Sport, Valid: true}
		position = sql.NullString{String: p.Athlete.Position, Valid: p.Athlete.Position != ""}
		if p.Athlete.GraduationYear != nil {
			gradYear = sql.NullInt64{Int64: int64(*p.Athlete.GraduationYear), Valid: true}
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, username, sport, position, graduation_year, has_seen_welcome, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET username = excluded.username,
		    sport = excluded.sport,
		    position = excluded.position,
		    graduation_year = excluded.graduation_year,
		    has_seen_welcome = excluded.has_seen_welcome,
		    updated_at = excluded.updated_at
	`, p.UserID, p.Username, sport, position, gradYear, p.HasSeenWelcome, toUnix(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) MarkWelcomeSeen(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles SET has_seen_welcome = 1, updated_at = ? WHERE user_id = ?`,
		toUnix(time.Now()), userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireAffected(res, "update profile")
}

// AdminSettingRepository implements domain.AdminSettingRepository
type AdminSettingRepository struct {
	db *sql.DB
}

func (r *AdminSettingRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.AdminSetting, error) {
	var (
		s       domain.AdminSetting
		updated int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, untethered_mode, updated_at FROM admin_settings WHERE user_id = ?`, userID,
	).Scan(&s.UserID, &s.UntetheredMode, &updated)
	if err != nil {
		return nil, notFound(err, "admin setting")
	}
	s.UpdatedAt = fromUnix(updated)
	return &s, nil
}

func (r *AdminSettingRepository) Set(ctx context.Context, s *domain.AdminSetting) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_settings (user_id, untethered_mode, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET untethered_mode = excluded.untethered_mode,
		    updated_at = excluded.updated_at
	`, s.UserID, s.UntetheredMode, toUnix(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to set admin setting: %w", err)
	}
	return nil
}
