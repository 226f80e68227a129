package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/recruit-advisor/internal/analytics"
	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/jobs"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxHistoryEntries caps the turns returned by SessionHistory
const maxHistoryEntries = 1000

// TaskQueue is the submit/poll surface of the task substrate
type TaskQueue interface {
	Submit(ctx context.Context, name string, payload any, opts ...queue.SubmitOption) (string, error)
	Poll(ctx context.Context, id string) (*queue.State, error)
}

// Greeter renders the first-visit welcome message
type Greeter interface {
	Welcome(ctx context.Context, username string) (string, error)
}

// ChatService is the boundary of the chat core: it submits turns and
// derivative jobs and exposes session management
type ChatService struct {
	sessions  domain.SessionRepository
	turns     domain.TurnRepository
	profiles  domain.ProfileRepository
	greeter   Greeter
	queue     TaskQueue
	analytics *analytics.Tracker
	cfg       config.ChatConfig
	now       func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(
	sessions domain.SessionRepository,
	turns domain.TurnRepository,
	profiles domain.ProfileRepository,
	greeter Greeter,
	queue TaskQueue,
	cfg config.ChatConfig,
	tracker *analytics.Tracker,
) *ChatService {
	if cfg.TitleMaxLen <= 0 {
		cfg.TitleMaxLen = 100
	}
	return &ChatService{
		sessions:  sessions,
		turns:     turns,
		profiles:  profiles,
		greeter:   greeter,
		queue:     queue,
		analytics: tracker,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SubmitTurn queues a chat turn. Without a session id a new session is
// created, subject to the per-user quota; ownership of an explicit
// session id is checked by the turn job.
func (s *ChatService) SubmitTurn(ctx context.Context, user domain.User, req domain.TurnRequest) (*domain.TurnSubmission, error) {
	var sessionID uuid.UUID
	created := false
	if req.SessionID != nil {
		sessionID = *req.SessionID
	} else {
		session, err := s.createSession(ctx, user.ID, defaultTitle(req.Prompt, s.cfg.TitleMaxLen))
		if err != nil {
			return nil, err
		}
		sessionID = session.ID
		created = true
	}

	taskID, err := s.queue.Submit(ctx, jobs.TaskTurn, jobs.TurnPayload{
		SessionID: sessionID,
		UserID:    user.ID,
		Prompt:    req.Prompt,
	})
	if err != nil {
		// an empty session would otherwise count toward the quota
		if created {
			if derr := s.sessions.Delete(ctx, sessionID, user.ID); derr != nil {
				log.Warn().Err(derr).Str("session_id", sessionID.String()).Msg("Failed to delete session of unsubmitted turn")
			}
			s.analytics.Refresh(ctx, user.ID)
		}
		return nil, fmt.Errorf("failed to submit turn: %w", err)
	}

	log.Info().
		Str("task_id", taskID).
		Str("session_id", sessionID.String()).
		Str("user_id", user.ID.String()).
		Msg("Turn submitted")

	return &domain.TurnSubmission{TaskID: taskID, SessionID: sessionID}, nil
}

// Poll reports the state of a task submitted by the user. Tasks of
// other users are reported as not found.
func (s *ChatService) Poll(ctx context.Context, userID uuid.UUID, taskID string) (*domain.TaskView, error) {
	state, err := s.queue.Poll(ctx, taskID)
	if err != nil {
		return nil, err
	}
	owned, err := s.ownsTask(ctx, state, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, domain.ErrNotFound
	}

	view := &domain.TaskView{TaskID: state.ID, Status: string(state.Status)}
	switch state.Status {
	case queue.StatusSuccess:
		result := state.Result
		view.Result = &result
		if state.Name == jobs.TaskTurn {
			s.summarizeAfterTurn(ctx, state)
		}
	case queue.StatusFailure:
		view.Error = state.Error
	}
	return view, nil
}

// summarizeAfterTurn queues the title/summary job once a turn of an
// unsummarized session has been answered. Failures only get logged.
func (s *ChatService) summarizeAfterTurn(ctx context.Context, state *queue.State) {
	var p jobs.TurnPayload
	if err := json.Unmarshal(state.Payload, &p); err != nil {
		return
	}
	logger := log.With().Str("task_id", state.ID).Str("session_id", p.SessionID.String()).Logger()

	session, err := s.sessions.Get(ctx, p.SessionID)
	if err != nil {
		if !domain.IsNotFound(err) {
			logger.Warn().Err(err).Msg("Failed to load session for title/summary")
		}
		return
	}
	if session.HasSummary() {
		return
	}
	if _, _, err := s.TriggerTitleSummary(ctx, p.SessionID); err != nil {
		logger.Warn().Err(err).Msg("Failed to trigger title/summary")
	}
}

// TriggerTitleSummary queues the title/summary job of a session unless the
// session already has a summary and more than one turn. While a job for the
// session is in flight its id is returned instead of a new one.
func (s *ChatService) TriggerTitleSummary(ctx context.Context, sessionID uuid.UUID) (string, bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	count, err := s.turns.CountBySession(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	if !jobs.NeedsSummary(session, count) {
		return "", false, nil
	}

	opts := []queue.SubmitOption{queue.WithUniqueKey(jobs.SummaryKey(sessionID))}
	if s.cfg.SummaryMaxRetries > 0 {
		opts = append(opts, queue.WithMaxRetries(s.cfg.SummaryMaxRetries))
	}
	taskID, err := s.queue.Submit(ctx, jobs.TaskSummary, jobs.SummaryPayload{SessionID: sessionID}, opts...)
	if err != nil {
		return "", false, fmt.Errorf("failed to submit summary: %w", err)
	}
	return taskID, true, nil
}

// TriggerOwnedTitleSummary is TriggerTitleSummary for a session of the given user
func (s *ChatService) TriggerOwnedTitleSummary(ctx context.Context, userID, sessionID uuid.UUID) (string, bool, error) {
	if _, err := s.sessions.GetOwned(ctx, sessionID, userID); err != nil {
		return "", false, err
	}
	return s.TriggerTitleSummary(ctx, sessionID)
}

// CreateSession creates an empty session
func (s *ChatService) CreateSession(ctx context.Context, userID uuid.UUID, title string) (*domain.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultSessionTitle
	}
	return s.createSession(ctx, userID, title)
}

// ListSessions lists the user's sessions, most recently updated first
func (s *ChatService) ListSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.SessionListItem, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	items := make([]domain.SessionListItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, domain.SessionListItem{ID: session.ID, Title: session.Title, Summary: session.Summary})
	}
	return items, nil
}

// SessionHistory returns the session as alternating user/model entries in chronological order
func (s *ChatService) SessionHistory(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.HistoryEntry, error) {
	if _, err := s.sessions.GetOwned(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	turns, err := s.turns.ListFirst(ctx, sessionID, maxHistoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, 2*len(turns))
	for _, t := range turns {
		// welcome turns have no prompt
		if t.PromptText != "" {
			entries = append(entries, domain.HistoryEntry{Type: "user", Text: t.PromptText, Timestamp: t.CreatedAt})
		}
		entries = append(entries, domain.HistoryEntry{Type: "model", Text: t.ResponseText, Timestamp: t.CreatedAt})
	}
	return entries, nil
}

// DeleteSession deletes a session and its turns
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, sessionID, userID); err != nil {
		return err
	}
	s.analytics.Refresh(ctx, userID)
	return nil
}

// Analytics returns the user's engagement counters
func (s *ChatService) Analytics(ctx context.Context, userID uuid.UUID) (*domain.UserAnalytics, error) {
	return s.analytics.Get(ctx, userID)
}

// StartWelcome greets a first-time user with a session holding the welcome
// message. It returns nil once the welcome has been shown or when no
// welcome message is configured.
func (s *ChatService) StartWelcome(ctx context.Context, user domain.User) (*domain.ChatSession, error) {
	profile, err := s.profiles.Get(ctx, user.ID)
	switch {
	case domain.IsNotFound(err):
		profile = &domain.UserProfile{UserID: user.ID, Username: user.Username, UpdatedAt: s.now()}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.HasSeenWelcome {
		return nil, nil
	}

	text, err := s.greeter.Welcome(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	session, err := s.createSession(ctx, user.ID, domain.DefaultSessionTitle)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	turn := &domain.Turn{
		ID:           uuid.New(),
		SessionID:    session.ID,
		UserID:       &userID,
		ResponseText: text,
		CreatedAt:    s.now(),
	}
	if err := s.turns.Create(ctx, turn); err != nil {
		return nil, fmt.Errorf("failed to save welcome turn: %w", err)
	}
	if err := s.profiles.MarkWelcomeSeen(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark welcome seen: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("session_id", session.ID.String()).Msg("Welcome session created")
	return session, nil
}

// Suggestions returns the user's most frequent prompts
func (s *ChatService) Suggestions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	prompts, err := s.turns.GetMostFrequentPrompts(ctx, userID, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}
	return prompts, nil
}

func (s *ChatService) createSession(ctx context.Context, userID uuid.UUID, title string) (*domain.ChatSession, error) {
	if s.cfg.MaxSessionsPerUser > 0 {
		count, err := s.sessions.CountByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sessions: %w", err)
		}
		if count >= s.cfg.MaxSessionsPerUser {
			return nil, domain.ErrQuotaExceeded
		}
	}

	now := s.now()
	session := &domain.ChatSession{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.analytics.Refresh(ctx, userID)
	return session, nil
}

// defaultTitle is the first maxLen characters of the prompt
func defaultTitle(prompt string, maxLen int) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.DefaultSessionTitle
	}
	runes := []rune(prompt)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return string(runes)
}

// ownsTask reports whether a task was submitted on behalf of userID.
// Summary tasks carry only a session and are owned by its user.
func (s *ChatService) ownsTask(ctx context.Context, state *queue.State, userID uuid.UUID) (bool, error) {
	var owner struct {
		UserID    *uuid.UUID `json:"user_id"`
		SessionID *uuid.UUID `json:"session_id"`
	}
	if len(state.Payload) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(state.Payload, &owner); err != nil {
		log.Warn().Err(err).Str("task_id", state.ID).Msg("Undecodable task payload")
		return false, nil
	}

	switch {
	case owner.UserID != nil:
		return *owner.UserID == userID, nil
	case owner.SessionID != nil:
		_, err := s.sessions.GetOwned(ctx, *owner.SessionID, userID)
		if domain.IsNotFound(err) {
			return false, nil
		}
		return err == nil, err
	default:
		return false, nil
	}
}
