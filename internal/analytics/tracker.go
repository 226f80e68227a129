// Package analytics keeps the per-user engagement counters current.
package analytics

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Tracker updates UserAnalytics next to the writes that change them.
// Update failures are logged and never fail the caller. A nil *Tracker
// records nothing.
type Tracker struct {
	repo domain.AnalyticsRepository
	now  func() time.Time
}

// NewTracker creates a tracker over repo
func NewTracker(repo domain.AnalyticsRepository) *Tracker {
	return &Tracker{repo: repo, now: time.Now}
}

// Turn counts an answered prompt and refreshes the session counts
func (t *Tracker) Turn(ctx context.Context, userID uuid.UUID, prompt string) {
	if t == nil {
		return
	}
	now := t.now().UTC()
	if err := t.repo.RecordTurn(ctx, userID, utf8.RuneCountInString(prompt), now); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to record turn analytics")
		return
	}
	t.refresh(ctx, userID, now)
}

// Refresh recounts sessions, ledger entries and action items
func (t *Tracker) Refresh(ctx context.Context, userID uuid.UUID) {
	if t == nil {
		return
	}
	t.refresh(ctx, userID, t.now().UTC())
}

func (t *Tracker) refresh(ctx context.Context, userID uuid.UUID, now time.Time) {
	if err := t.repo.Refresh(ctx, userID, now); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to refresh analytics")
	}
}

// Get returns the user's counters; users without activity get zeros
func (t *Tracker) Get(ctx context.Context, userID uuid.UUID) (*domain.UserAnalytics, error) {
	if t == nil {
		return &domain.UserAnalytics{UserID: userID}, nil
	}
	a, err := t.repo.Get(ctx, userID)
	switch {
	case domain.IsNotFound(err):
		return &domain.UserAnalytics{UserID: userID}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	return a, nil
}
