// Package repository groups the storage backends behind the domain repository interfaces.
package repository

import (
	"context"

	"github.com/Rrens/recruit-advisor/internal/domain"
)

// Store bundles every repository the application needs from one backend
type Store struct {
	Sessions    domain.SessionRepository
	Turns       domain.TurnRepository
	Fragments   domain.PromptFragmentRepository
	Ledger      domain.LedgerRepository
	ActionItems domain.ActionItemRepository
	Profiles    domain.ProfileRepository
	Settings    domain.AdminSettingRepository
	Analytics   domain.AnalyticsRepository

	Ping  func(ctx context.Context) error
	Close func() error
}
