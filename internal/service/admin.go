package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AdminService manages the live prompt configuration and per-user overrides.
// Changes apply to the next turn.
type AdminService struct {
	fragments domain.PromptFragmentRepository
	settings  domain.AdminSettingRepository
	now       func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(fragments domain.PromptFragmentRepository, settings domain.AdminSettingRepository) *AdminService {
	return &AdminService{fragments: fragments, settings: settings, now: time.Now}
}

// ListPrompts returns every fragment, active or not
func (s *AdminService) ListPrompts(ctx context.Context) ([]domain.PromptFragment, error) {
	fragments, err := s.fragments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt fragments: %w", err)
	}
	return fragments, nil
}

// UpsertPrompt creates or replaces a fragment by name. New fragments are active unless stated.
func (s *AdminService) UpsertPrompt(ctx context.Context, input domain.PromptFragmentUpsert) (*domain.PromptFragment, error) {
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	fragment := &domain.PromptFragment{
		Name:      input.Name,
		Content:   input.Content,
		IsActive:  active,
		SortOrder: input.SortOrder,
		UpdatedAt: s.now(),
	}
	if err := s.fragments.Upsert(ctx, fragment); err != nil {
		return nil, fmt.Errorf("failed to save prompt fragment: %w", err)
	}

	log.Info().Str("fragment", fragment.Name).Bool("active", active).Msg("Prompt fragment saved")
	return fragment, nil
}

// SetPromptActive toggles a fragment
func (s *AdminService) SetPromptActive(ctx context.Context, name string, active bool) error {
	if err := s.fragments.SetActive(ctx, name, active); err != nil {
		return err
	}
	log.Info().Str("fragment", name).Bool("active", active).Msg("Prompt fragment toggled")
	return nil
}

// GetSetting returns the user's override, or the default when none is stored
func (s *AdminService) GetSetting(ctx context.Context, userID uuid.UUID) (*domain.AdminSetting, error) {
	setting, err := s.settings.Get(ctx, userID)
	if domain.IsNotFound(err) {
		return &domain.AdminSetting{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin setting: %w", err)
	}
	return setting, nil
}

// SetUntethered switches the user's untethered mode
func (s *AdminService) SetUntethered(ctx context.Context, userID uuid.UUID, untethered bool) (*domain.AdminSetting, error) {
	setting := &domain.AdminSetting{UserID: userID, UntetheredMode: untethered, UpdatedAt: s.now()}
	if err := s.settings.Set(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to save admin setting: %w", err)
	}

	log.Info().Str("user_id", userID.String()).Bool("untethered", untethered).Msg("Admin setting saved")
	return setting, nil
}
