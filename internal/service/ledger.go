package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/recruit-advisor/internal/analytics"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/jobs"
	"github.com/google/uuid"
)

// ErrEmptyLedgerEntry is returned when an entry has neither content nor a source turn
var ErrEmptyLedgerEntry = errors.New("ledger entry needs content or a source turn")

// LedgerService manages saved insights and their action item extraction
type LedgerService struct {
	ledger    domain.LedgerRepository
	turns     domain.TurnRepository
	queue     TaskQueue
	analytics *analytics.Tracker
	now       func() time.Time
}

// NewLedgerService creates a new ledger service
func NewLedgerService(ledger domain.LedgerRepository, turns domain.TurnRepository, queue TaskQueue, tracker *analytics.Tracker) *LedgerService {
	return &LedgerService{ledger: ledger, turns: turns, queue: queue, analytics: tracker, now: time.Now}
}

// Create saves a ledger entry. When only a source turn is given its
// response text becomes the content.
func (s *LedgerService) Create(ctx context.Context, userID uuid.UUID, input domain.LedgerEntryCreate) (*domain.LedgerEntry, error) {
	content := strings.TrimSpace(input.Content)

	if input.SourceTurnID != nil {
		turn, err := s.turns.Get(ctx, *input.SourceTurnID)
		if err != nil {
			return nil, err
		}
		if turn.UserID == nil || *turn.UserID != userID {
			return nil, domain.ErrNotFound
		}
		if content == "" {
			content = turn.ResponseText
		}
	}
	if content == "" {
		return nil, ErrEmptyLedgerEntry
	}

	now := s.now()
	entry := &domain.LedgerEntry{
		ID:           uuid.New(),
		UserID:       userID,
		SourceTurnID: input.SourceTurnID,
		Title:        strings.TrimSpace(input.Title),
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.ledger.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create ledger entry: %w", err)
	}
	s.analytics.Refresh(ctx, userID)
	return entry, nil
}

// Get retrieves an entry owned by the user
func (s *LedgerService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.LedgerEntry, error) {
	return s.ledger.Get(ctx, id, userID)
}

// List returns the user's entries, active only unless the filter says otherwise
func (s *LedgerService) List(ctx context.Context, userID uuid.UUID, filter domain.ListFilter) ([]domain.LedgerEntry, error) {
	entries, err := s.ledger.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// Archive soft-deletes an entry
func (s *LedgerService) Archive(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.ledger.Archive(ctx, id, userID, s.now()); err != nil {
		return err
	}
	s.analytics.Refresh(ctx, userID)
	return nil
}

// TriggerActionItems queues action item extraction for an entry owned by the user
func (s *LedgerService) TriggerActionItems(ctx context.Context, userID, entryID uuid.UUID) (string, error) {
	if _, err := s.ledger.Get(ctx, entryID, userID); err != nil {
		return "", err
	}

	taskID, err := s.queue.Submit(ctx, jobs.TaskActionItems, jobs.ActionItemsPayload{
		UserID:        userID,
		LedgerEntryID: entryID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit action items: %w", err)
	}
	return taskID, nil
}

// ActionItemService manages the user's action items
type ActionItemService struct {
	items     domain.ActionItemRepository
	analytics *analytics.Tracker
	now       func() time.Time
}

// NewActionItemService creates a new action item service
func NewActionItemService(items domain.ActionItemRepository, tracker *analytics.Tracker) *ActionItemService {
	return &ActionItemService{items: items, analytics: tracker, now: time.Now}
}

// List returns the user's items ordered by priority, then creation
func (s *ActionItemService) List(ctx context.Context, userID uuid.UUID, filter domain.ListFilter) ([]domain.ActionItem, error) {
	items, err := s.items.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list action items: %w", err)
	}
	return items, nil
}

// Update applies completion, priority and due date changes
func (s *ActionItemService) Update(ctx context.Context, userID, id uuid.UUID, input domain.ActionItemUpdate) (*domain.ActionItem, error) {
	item, err := s.items.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.IsComplete != nil {
		item.IsComplete = *input.IsComplete
	}
	if input.Priority != nil {
		item.Priority = *input.Priority
	}
	if input.DueDate != nil {
		due := input.DueDate.UTC()
		item.DueDate = &due
	}
	item.UpdatedAt = s.now()

	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update action item: %w", err)
	}
	if input.IsComplete != nil {
		s.analytics.Refresh(ctx, userID)
	}
	return item, nil
}

// Archive soft-deletes an item
func (s *ActionItemService) Archive(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.items.Archive(ctx, id, userID, s.now()); err != nil {
		return err
	}
	s.analytics.Refresh(ctx, userID)
	return nil
}
