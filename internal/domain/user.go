package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the identity handed to the core by the surrounding application
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// AthleteProfile is the sport context injected into the system instruction
type AthleteProfile struct {
	Sport          string `json:"sport"`
	Position       string `json:"position,omitempty"`
	GraduationYear *int   `json:"graduation_year,omitempty"`
}

// Describe renders the profile as a labeled context block
func (p AthleteProfile) Describe() string {
	var b strings.Builder
	b.WriteString("CONTEXT: You are speaking to an athlete. Their profile is: Sport - ")
	b.WriteString(p.Sport)
	if p.Position != "" {
		b.WriteString(", Position - ")
		b.WriteString(p.Position)
	}
	if p.GraduationYear != nil {
		fmt.Fprintf(&b, ", Graduation Year - %d", *p.GraduationYear)
	}
	b.WriteString(". Use this information to personalize your advice.")
	return b.String()
}

// UserProfile holds per-user state the core reads
type UserProfile struct {
	UserID         uuid.UUID       `json:"user_id"`
	Username       string          `json:"username"`
	Athlete        *AthleteProfile `json:"athlete,omitempty"`
	HasSeenWelcome bool            `json:"has_seen_welcome"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AdminSetting is the per-user operator override
type AdminSetting struct {
	UserID         uuid.UUID `json:"user_id"`
	UntetheredMode bool      `json:"untethered_mode"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProfileRepository defines the interface for user profile storage
type ProfileRepository interface {
	// Get returns ErrNotFound when the user has no profile yet
	Get(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	Upsert(ctx context.Context, profile *UserProfile) error
	MarkWelcomeSeen(ctx context.Context, userID uuid.UUID) error
}

// AdminSettingRepository defines the interface for admin override storage
type AdminSettingRepository interface {
	// Get returns ErrNotFound when no setting was ever stored
	Get(ctx context.Context, userID uuid.UUID) (*AdminSetting, error)
	Set(ctx context.Context, setting *AdminSetting) error
}
