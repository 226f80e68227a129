package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/agent"
	"github.com/Rrens/recruit-advisor/internal/analytics"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/lock"
	"github.com/Rrens/recruit-advisor/internal/metrics"
	"github.com/Rrens/recruit-advisor/internal/prompt"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SystemBuilder assembles the system instruction of a turn
type SystemBuilder interface {
	Build(ctx context.Context, in prompt.Input) string
}

// TurnRunner runs the model/tool loop of a turn
type TurnRunner interface {
	Run(ctx context.Context, in agent.TurnInput) (*agent.TurnResult, error)
}

// TurnDeps are the collaborators of the turn handler
type TurnDeps struct {
	Sessions     domain.SessionRepository
	Turns        domain.TurnRepository
	Profiles     domain.ProfileRepository
	Settings     domain.AdminSettingRepository
	Prompts      SystemBuilder
	Runner       TurnRunner
	Locker       lock.Locker
	Analytics    *analytics.Tracker
	HistoryTurns int
	LockTTL      time.Duration
	Metrics      *metrics.Metrics
}

// TurnHandler answers one user prompt and persists the resulting turn
type TurnHandler struct {
	deps TurnDeps
	now  func() time.Time
}

// NewTurnHandler creates a turn handler
func NewTurnHandler(deps TurnDeps) *TurnHandler {
	if deps.HistoryTurns <= 0 {
		deps.HistoryTurns = 10
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 3 * time.Minute
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewMemory()
	}
	return &TurnHandler{deps: deps, now: time.Now}
}

// Handle implements queue.Handler
func (h *TurnHandler) Handle(ctx context.Context, task *queue.Task) (string, error) {
	var p TurnPayload
	if err := decode(task, &p); err != nil {
		return "", err
	}

	start := h.now()
	text, err := h.run(ctx, p)
	outcome := "success"
	if err != nil {
		outcome = Classify(err).Kind
	}
	h.deps.Metrics.ObserveTurn(outcome, h.now().Sub(start))
	return text, err
}

func (h *TurnHandler) run(ctx context.Context, p TurnPayload) (string, error) {
	logger := log.With().Str("session_id", p.SessionID.String()).Str("user_id", p.UserID.String()).Logger()

	// Turns of one session are appended one at a time
	release, err := h.deps.Locker.Acquire(ctx, "session:"+p.SessionID.String(), h.deps.LockTTL)
	if err != nil {
		return "", err
	}
	defer release()

	if _, err := h.deps.Sessions.GetOwned(ctx, p.SessionID, p.UserID); err != nil {
		if domain.IsNotFound(err) {
			logger.Warn().Msg("Turn submitted for a session the user does not own")
			return "", notFound(MsgSessionNotFound)
		}
		return "", err
	}

	history, err := h.deps.Turns.ListRecent(ctx, p.SessionID, h.deps.HistoryTurns)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	in, err := h.promptInput(ctx, p.UserID)
	if err != nil {
		return "", err
	}
	system := h.deps.Prompts.Build(ctx, in)

	result, err := h.deps.Runner.Run(ctx, agent.TurnInput{
		System:  system,
		History: history,
		Prompt:  p.Prompt,
	})
	if err != nil {
		return "", err
	}

	now := h.now().UTC()
	userID := p.UserID
	turn := &domain.Turn{
		ID:           uuid.New(),
		SessionID:    p.SessionID,
		UserID:       &userID,
		PromptText:   p.Prompt,
		ResponseText: result.Text,
		CreatedAt:    now,
	}
	if err := h.deps.Turns.Create(ctx, turn); err != nil {
		return "", err
	}
	if err := h.deps.Sessions.Touch(ctx, p.SessionID, now); err != nil {
		logger.Warn().Err(err).Msg("Failed to touch session")
	}
	h.deps.Analytics.Turn(ctx, p.UserID, p.Prompt)

	logger.Info().
		Int("model_calls", result.ModelCalls).
		Int("tool_calls", result.ToolCalls).
		Int("sources", len(result.Sources)).
		Msg("Turn completed")

	return result.Text, nil
}

func (h *TurnHandler) promptInput(ctx context.Context, userID uuid.UUID) (prompt.Input, error) {
	var in prompt.Input

	profile, err := h.deps.Profiles.Get(ctx, userID)
	switch {
	case err == nil:
		in.Profile = profile.Athlete
	case !domain.IsNotFound(err):
		return in, fmt.Errorf("failed to load profile: %w", err)
	}

	setting, err := h.deps.Settings.Get(ctx, userID)
	switch {
	case err == nil:
		in.Untethered = setting.UntetheredMode
	case !domain.IsNotFound(err):
		return in, fmt.Errorf("failed to load admin setting: %w", err)
	}

	return in, nil
}
