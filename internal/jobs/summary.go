package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/rs/zerolog/log"
)

// SummarySystemPrompt instructs the model to name a conversation
const SummarySystemPrompt = "You are a summarization expert. Analyze the provided conversation snippet. " +
	"Generate a concise, engaging title (max 5 words) and a brief summary (max 20 words). " +
	"Respond ONLY with a single valid JSON object containing the keys 'title' and 'summary'. " +
	"DO NOT include any markdown fences (```json) or introductory text."

const maxTitleWords = 5

var summarySchema = mustSchema(`{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"summary": {"type": "string", "minLength": 1}
	},
	"required": ["title", "summary"],
	"additionalProperties": false
}`)

type summaryOutput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// SummaryDeps are the collaborators of the title/summary handler
type SummaryDeps struct {
	Sessions     domain.SessionRepository
	Turns        domain.TurnRepository
	Model        llm.Provider
	Temperature  *float32
	SummaryTurns int
	TitleMaxLen  int
}

// SummaryHandler names a session from its earliest turns
type SummaryHandler struct {
	deps SummaryDeps
}

// NewSummaryHandler creates a title/summary handler
func NewSummaryHandler(deps SummaryDeps) *SummaryHandler {
	if deps.SummaryTurns <= 0 {
		deps.SummaryTurns = 2
	}
	if deps.TitleMaxLen <= 0 {
		deps.TitleMaxLen = 100
	}
	return &SummaryHandler{deps: deps}
}

// NeedsSummary reports whether a session should be (re)named
func NeedsSummary(session *domain.ChatSession, turnCount int) bool {
	return turnCount == 1 || !session.HasSummary()
}

// Handle implements queue.Handler
func (h *SummaryHandler) Handle(ctx context.Context, task *queue.Task) (string, error) {
	var p SummaryPayload
	if err := decode(task, &p); err != nil {
		return "", err
	}

	session, err := h.deps.Sessions.Get(ctx, p.SessionID)
	if err != nil {
		if domain.IsNotFound(err) {
			return "", notFound(MsgSessionNotFound)
		}
		return "", err
	}

	count, err := h.deps.Turns.CountBySession(ctx, p.SessionID)
	if err != nil {
		return "", fmt.Errorf("failed to count turns: %w", err)
	}
	if !NeedsSummary(session, count) {
		return MsgSummaryAlreadySet, nil
	}

	turns, err := h.deps.Turns.ListFirst(ctx, p.SessionID, h.deps.SummaryTurns)
	if err != nil {
		return "", fmt.Errorf("failed to load turns: %w", err)
	}
	if len(turns) == 0 {
		return MsgNotEnoughContext, nil
	}

	var out summaryOutput
	err = structuredCall(ctx, h.deps.Model, h.deps.Temperature,
		SummarySystemPrompt, ConversationContext(turns),
		fmt.Sprintf(taskExtractSummary, p.SessionID), summarySchema, &out)
	if err != nil {
		return "", err
	}

	title := truncateTitle(out.Title, h.deps.TitleMaxLen)
	summary := strings.TrimSpace(out.Summary)
	if err := h.deps.Sessions.UpdateTitleSummary(ctx, p.SessionID, title, summary); err != nil {
		return "", err
	}

	log.Info().Str("session_id", p.SessionID.String()).Str("title", title).Msg("Session summarized")
	return fmt.Sprintf(msgUpdatedSession, p.SessionID), nil
}

// ConversationContext renders turns as the summarization input
func ConversationContext(turns []domain.Turn) string {
	parts := make([]string, 0, len(turns)*2)
	for _, t := range turns {
		if t.PromptText != "" {
			parts = append(parts, "USER: "+t.PromptText)
		}
		if t.ResponseText != "" {
			parts = append(parts, "AGENT: "+t.ResponseText)
		}
	}
	return strings.Join(parts, "\n\n")
}

func truncateTitle(title string, maxLen int) string {
	words := strings.Fields(title)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	t := strings.Join(words, " ")
	if r := []rune(t); len(r) > maxLen {
		t = strings.TrimSpace(string(r[:maxLen]))
	}
	return t
}
