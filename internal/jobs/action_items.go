package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/recruit-advisor/internal/analytics"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ActionItemSystemPrompt instructs the model to distill a ledger entry into tasks
const ActionItemSystemPrompt = "You are an expert project manager and recruiting strategist. Your task is to analyze " +
	"the provided advice/insight and distill it into 3 to 5 clear, concrete, and actionable " +
	"steps (Action Items) for a student-athlete. Each action item must be a short, direct " +
	"sentence (max 15 words). Ignore any background context or titles, focus strictly on the action. " +
	"Respond ONLY with a single JSON array containing objects with the key 'description'. " +
	"DO NOT include any markdown fences (```json) or introductory text. " +
	`Example response: [{"description": "Research 10 target schools this week."}, {"description": "Create a new highlight reel clip."}]`

const maxActionItemWords = 15

var actionItemSchema = mustSchema(`{
	"type": "array",
	"minItems": 1,
	"maxItems": 5,
	"items": {
		"type": "object",
		"properties": {
			"description": {"type": "string", "minLength": 1, "pattern": "\\S"}
		},
		"required": ["description"]
	}
}`)

type actionItemOutput struct {
	Description string `json:"description"`
}

// ActionItemDeps are the collaborators of the action item handler
type ActionItemDeps struct {
	Ledger      domain.LedgerRepository
	ActionItems domain.ActionItemRepository
	Model       llm.Provider
	Temperature *float32
	Analytics   *analytics.Tracker
}

// ActionItemHandler turns a ledger entry into a batch of action items
type ActionItemHandler struct {
	deps ActionItemDeps
	now  func() time.Time
}

// NewActionItemHandler creates an action item handler
func NewActionItemHandler(deps ActionItemDeps) *ActionItemHandler {
	return &ActionItemHandler{deps: deps, now: time.Now}
}

// Handle implements queue.Handler
func (h *ActionItemHandler) Handle(ctx context.Context, task *queue.Task) (string, error) {
	var p ActionItemsPayload
	if err := decode(task, &p); err != nil {
		return "", err
	}

	entry, err := h.deps.Ledger.Get(ctx, p.LedgerEntryID, p.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return "", notFound(MsgLedgerNotFound)
		}
		return "", err
	}

	var out []actionItemOutput
	err = structuredCall(ctx, h.deps.Model, h.deps.Temperature,
		ActionItemSystemPrompt, entry.Content,
		taskGenerateActionItems, actionItemSchema, &out)
	if err != nil {
		return "", err
	}

	for i, o := range out {
		if n := len(strings.Fields(o.Description)); n > maxActionItemWords {
			log.Error().Int("index", i).Int("words", n).Msg("Action item too long")
			return "", &domain.MalformedOutputError{
				Task:   taskGenerateActionItems,
				Reason: fmt.Sprintf("item %d has %d words, limit is %d", i, n, maxActionItemWords),
				Raw:    o.Description,
			}
		}
	}

	now := h.now().UTC()
	entryID := entry.ID
	items := make([]domain.ActionItem, 0, len(out))
	for _, o := range out {
		items = append(items, domain.ActionItem{
			ID:                  uuid.New(),
			UserID:              p.UserID,
			SourceLedgerEntryID: &entryID,
			Description:         strings.TrimSpace(o.Description),
			Priority:            domain.DefaultActionItemPriority,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}
	if err := h.deps.ActionItems.CreateBatch(ctx, items); err != nil {
		return "", err
	}
	h.deps.Analytics.Refresh(ctx, p.UserID)

	log.Info().Str("ledger_entry_id", entry.ID.String()).Int("count", len(items)).Msg("Action items created")
	return fmt.Sprintf(msgActionItemsCreated, len(items), entry.ID), nil
}
