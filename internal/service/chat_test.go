package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/jobs"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type chatMocks struct {
	sessions *MockSessionRepository
	turns    *MockTurnRepository
	profiles *MockProfileRepository
	greeter  *MockGreeter
	queue    *MockTaskQueue
}

func newChatService(maxSessions int) (*ChatService, *chatMocks) {
	m := &chatMocks{
		sessions: new(MockSessionRepository),
		turns:    new(MockTurnRepository),
		profiles: new(MockProfileRepository),
		greeter:  new(MockGreeter),
		queue:    new(MockTaskQueue),
	}
	svc := NewChatService(m.sessions, m.turns, m.profiles, m.greeter, m.queue, config.ChatConfig{MaxSessionsPerUser: maxSessions}, nil)
	return svc, m
}

func TestChatService_SubmitTurn(t *testing.T) {
	ctx := context.Background()
	user := domain.User{ID: uuid.New(), Username: "jo"}

	t.Run("new session", func(t *testing.T) {
		svc, m := newChatService(3)
		prompt := strings.Repeat("a", 150)

		m.sessions.On("CountByUser", ctx, user.ID).Return(2, nil)
		m.sessions.On("Create", ctx, mock.MatchedBy(func(s *domain.ChatSession) bool {
			return s.UserID == user.ID && s.Title == strings.Repeat("a", 100) && s.Summary == ""
		})).Return(nil)
		m.queue.On("Submit", ctx, jobs.TaskTurn, mock.MatchedBy(func(p jobs.TurnPayload) bool {
			return p.UserID == user.ID && p.Prompt == prompt
		}), "").Return("task-1", nil)

		sub, err := svc.SubmitTurn(ctx, user, domain.TurnRequest{Prompt: prompt})
		require.NoError(t, err)
		assert.Equal(t, "task-1", sub.TaskID)
		assert.NotEqual(t, uuid.Nil, sub.SessionID)

		m.sessions.AssertExpectations(t)
		m.queue.AssertExpectations(t)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		svc, m := newChatService(3)
		m.sessions.On("CountByUser", ctx, user.ID).Return(3, nil)

		sub, err := svc.SubmitTurn(ctx, user, domain.TurnRequest{Prompt: "hi"})
		assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
		assert.Nil(t, sub)

		m.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.queue.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("submit failure deletes new session", func(t *testing.T) {
		svc, m := newChatService(3)
		var created uuid.UUID

		m.sessions.On("CountByUser", ctx, user.ID).Return(0, nil)
		m.sessions.On("Create", ctx, mock.AnythingOfType("*domain.ChatSession")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*domain.ChatSession).ID }).
			Return(nil)
		m.queue.On("Submit", ctx, jobs.TaskTurn, mock.Anything, "").Return("", errors.New("redis down"))
		m.sessions.On("Delete", ctx, mock.AnythingOfType("uuid.UUID"), user.ID).Return(nil)

		sub, err := svc.SubmitTurn(ctx, user, domain.TurnRequest{Prompt: "hi"})
		assert.ErrorContains(t, err, "redis down")
		assert.Nil(t, sub)

		m.sessions.AssertCalled(t, "Delete", ctx, created, user.ID)
	})

	t.Run("submit failure keeps existing session", func(t *testing.T) {
		svc, m := newChatService(3)
		sessionID := uuid.New()
		m.queue.On("Submit", ctx, jobs.TaskTurn, mock.Anything, "").Return("", errors.New("redis down"))

		_, err := svc.SubmitTurn(ctx, user, domain.TurnRequest{SessionID: &sessionID, Prompt: "hi"})
		assert.Error(t, err)
		m.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("existing session skips quota", func(t *testing.T) {
		svc, m := newChatService(3)
		sessionID := uuid.New()
		m.queue.On("Submit", ctx, jobs.TaskTurn, jobs.TurnPayload{SessionID: sessionID, UserID: user.ID, Prompt: "again"}, "").
			Return("task-2", nil)

		sub, err := svc.SubmitTurn(ctx, user, domain.TurnRequest{SessionID: &sessionID, Prompt: "again"})
		require.NoError(t, err)
		assert.Equal(t, sessionID, sub.SessionID)
		m.sessions.AssertNotCalled(t, "CountByUser", mock.Anything, mock.Anything)
	})
}

func TestChatService_Poll(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	payload, _ := json.Marshal(jobs.TurnPayload{SessionID: uuid.New(), UserID: userID, Prompt: "hi"})

	t.Run("success carries result", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "t1").Return(&queue.State{ID: "t1", Status: queue.StatusSuccess, Result: "answer", Payload: payload}, nil)

		view, err := svc.Poll(ctx, userID, "t1")
		require.NoError(t, err)
		assert.Equal(t, "SUCCESS", view.Status)
		require.NotNil(t, view.Result)
		assert.Equal(t, "answer", *view.Result)
	})

	t.Run("pending has no result", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "t1").Return(&queue.State{ID: "t1", Status: queue.StatusPending, Payload: payload}, nil)

		view, err := svc.Poll(ctx, userID, "t1")
		require.NoError(t, err)
		assert.Equal(t, "PENDING", view.Status)
		assert.Nil(t, view.Result)
	})

	t.Run("failure carries error", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "t1").Return(&queue.State{ID: "t1", Status: queue.StatusFailure, Error: jobs.MsgSessionNotFound, Payload: payload}, nil)

		view, err := svc.Poll(ctx, userID, "t1")
		require.NoError(t, err)
		assert.Equal(t, jobs.MsgSessionNotFound, view.Error)
		assert.Nil(t, view.Result)
	})

	t.Run("other user", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "t1").Return(&queue.State{ID: "t1", Status: queue.StatusSuccess, Payload: payload}, nil)

		_, err := svc.Poll(ctx, uuid.New(), "t1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("summary task of own session", func(t *testing.T) {
		svc, m := newChatService(0)
		sessionID := uuid.New()
		summaryPayload, _ := json.Marshal(jobs.SummaryPayload{SessionID: sessionID})
		m.queue.On("Poll", ctx, "s1").Return(&queue.State{ID: "s1", Status: queue.StatusRunning, Payload: summaryPayload}, nil)
		m.sessions.On("GetOwned", ctx, sessionID, userID).Return(&domain.ChatSession{ID: sessionID, UserID: userID}, nil)

		view, err := svc.Poll(ctx, userID, "s1")
		require.NoError(t, err)
		assert.Equal(t, "RUNNING", view.Status)
	})

	t.Run("unknown task", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "nope").Return(nil, domain.ErrNotFound)

		_, err := svc.Poll(ctx, userID, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestChatService_PollTriggersSummary(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()
	payload, _ := json.Marshal(jobs.TurnPayload{SessionID: sessionID, UserID: userID, Prompt: "hi"})
	answered := &queue.State{ID: "t1", Name: jobs.TaskTurn, Status: queue.StatusSuccess, Result: "answer", Payload: payload}

	t.Run("answered turn of unsummarized session", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "t1").Return(answered, nil)
		m.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID}, nil)
		m.turns.On("CountBySession", ctx, sessionID).Return(1, nil)
		m.queue.On("Submit", ctx, jobs.TaskSummary, jobs.SummaryPayload{SessionID: sessionID}, jobs.SummaryKey(sessionID)).
			Return("sum-1", nil).Once()

		view, err := svc.Poll(ctx, userID, "t1")
		require.NoError(t, err)
		assert.Equal(t, "SUCCESS", view.Status)
		m.queue.AssertExpectations(t)
	})

	t.Run("summarized session", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "t1").Return(answered, nil)
		m.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID, Summary: "set"}, nil)

		for i := 0; i < 2; i++ {
			_, err := svc.Poll(ctx, userID, "t1")
			require.NoError(t, err)
		}
		m.queue.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("submit failure still reports the answer", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "t1").Return(answered, nil)
		m.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID}, nil)
		m.turns.On("CountBySession", ctx, sessionID).Return(1, nil)
		m.queue.On("Submit", ctx, jobs.TaskSummary, mock.Anything, mock.Anything).Return("", errors.New("redis down"))

		view, err := svc.Poll(ctx, userID, "t1")
		require.NoError(t, err)
		require.NotNil(t, view.Result)
		assert.Equal(t, "answer", *view.Result)
	})

	t.Run("pending turn", func(t *testing.T) {
		svc, m := newChatService(0)
		m.queue.On("Poll", ctx, "t1").Return(&queue.State{ID: "t1", Name: jobs.TaskTurn, Status: queue.StatusPending, Payload: payload}, nil)

		_, err := svc.Poll(ctx, userID, "t1")
		require.NoError(t, err)
		m.sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestChatService_TriggerTitleSummary(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()

	t.Run("first turn", func(t *testing.T) {
		svc, m := newChatService(0)
		m.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID}, nil)
		m.turns.On("CountBySession", ctx, sessionID).Return(1, nil)
		m.queue.On("Submit", ctx, jobs.TaskSummary, jobs.SummaryPayload{SessionID: sessionID}, jobs.SummaryKey(sessionID)).
			Return("sum-1", nil)

		id, queued, err := svc.TriggerTitleSummary(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, queued)
		assert.Equal(t, "sum-1", id)
	})

	t.Run("retry ceiling", func(t *testing.T) {
		m := &chatMocks{
			sessions: new(MockSessionRepository),
			turns:    new(MockTurnRepository),
			queue:    new(MockTaskQueue),
		}
		svc := NewChatService(m.sessions, m.turns, nil, nil, m.queue, config.ChatConfig{SummaryMaxRetries: 1}, nil)
		m.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID}, nil)
		m.turns.On("CountBySession", ctx, sessionID).Return(1, nil)
		m.queue.On("Submit", ctx, jobs.TaskSummary, mock.Anything, jobs.SummaryKey(sessionID)).Return("sum-1", nil)

		_, queued, err := svc.TriggerTitleSummary(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, queued)
		require.Len(t, m.queue.submitted, 1)
		assert.Equal(t, 1, m.queue.submitted[0].MaxRetries)
	})

	t.Run("already summarized", func(t *testing.T) {
		svc, m := newChatService(0)
		m.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, Summary: "set"}, nil)
		m.turns.On("CountBySession", ctx, sessionID).Return(4, nil)

		for i := 0; i < 2; i++ {
			_, queued, err := svc.TriggerTitleSummary(ctx, sessionID)
			require.NoError(t, err)
			assert.False(t, queued)
		}
		m.queue.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("owned check", func(t *testing.T) {
		svc, m := newChatService(0)
		userID := uuid.New()
		m.sessions.On("GetOwned", ctx, sessionID, userID).Return(nil, domain.ErrNotFound)

		_, _, err := svc.TriggerOwnedTitleSummary(ctx, userID, sessionID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestChatService_SessionHistory(t *testing.T) {
	ctx := context.Background()
	svc, m := newChatService(0)
	userID, sessionID := uuid.New(), uuid.New()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	m.sessions.On("GetOwned", ctx, sessionID, userID).Return(&domain.ChatSession{ID: sessionID}, nil)
	m.turns.On("ListFirst", ctx, sessionID, maxHistoryEntries).Return([]domain.Turn{
		{ResponseText: "Welcome!", CreatedAt: at},
		{PromptText: "Q1", ResponseText: "A1", CreatedAt: at.Add(time.Minute)},
	}, nil)

	entries, err := svc.SessionHistory(ctx, userID, sessionID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.HistoryEntry{Type: "model", Text: "Welcome!", Timestamp: at}, entries[0])
	assert.Equal(t, "user", entries[1].Type)
	assert.Equal(t, "Q1", entries[1].Text)
	assert.Equal(t, "A1", entries[2].Text)
}

func TestChatService_CreateSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("default title", func(t *testing.T) {
		svc, m := newChatService(0)
		m.sessions.On("Create", ctx, mock.AnythingOfType("*domain.ChatSession")).Return(nil)

		session, err := svc.CreateSession(ctx, userID, "  ")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultSessionTitle, session.Title)
		m.sessions.AssertNotCalled(t, "CountByUser", mock.Anything, mock.Anything)
	})

	t.Run("quota", func(t *testing.T) {
		svc, m := newChatService(1)
		m.sessions.On("CountByUser", ctx, userID).Return(1, nil)

		_, err := svc.CreateSession(ctx, userID, "Plans")
		assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	})
}

func TestChatService_StartWelcome(t *testing.T) {
	ctx := context.Background()
	user := domain.User{ID: uuid.New(), Username: "jo"}

	t.Run("first visit", func(t *testing.T) {
		svc, m := newChatService(5)
		m.profiles.On("Get", ctx, user.ID).Return(nil, domain.ErrNotFound)
		m.profiles.On("Upsert", ctx, mock.AnythingOfType("*domain.UserProfile")).Return(nil)
		m.greeter.On("Welcome", ctx, "jo").Return("Welcome, jo!", nil)
		m.sessions.On("CountByUser", ctx, user.ID).Return(0, nil)
		m.sessions.On("Create", ctx, mock.AnythingOfType("*domain.ChatSession")).Return(nil)
		m.turns.On("Create", ctx, mock.MatchedBy(func(turn *domain.Turn) bool {
			return turn.PromptText == "" && turn.ResponseText == "Welcome, jo!"
		})).Return(nil)
		m.profiles.On("MarkWelcomeSeen", ctx, user.ID).Return(nil)

		session, err := svc.StartWelcome(ctx, user)
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, user.ID, session.UserID)

		m.profiles.AssertExpectations(t)
		m.turns.AssertExpectations(t)
	})

	t.Run("already seen", func(t *testing.T) {
		svc, m := newChatService(5)
		m.profiles.On("Get", ctx, user.ID).Return(&domain.UserProfile{UserID: user.ID, HasSeenWelcome: true}, nil)

		session, err := svc.StartWelcome(ctx, user)
		require.NoError(t, err)
		assert.Nil(t, session)
		m.greeter.AssertNotCalled(t, "Welcome", mock.Anything, mock.Anything)
	})

	t.Run("no welcome configured", func(t *testing.T) {
		svc, m := newChatService(5)
		m.profiles.On("Get", ctx, user.ID).Return(&domain.UserProfile{UserID: user.ID}, nil)
		m.greeter.On("Welcome", ctx, "jo").Return("", nil)

		session, err := svc.StartWelcome(ctx, user)
		require.NoError(t, err)
		assert.Nil(t, session)
		m.profiles.AssertNotCalled(t, "MarkWelcomeSeen", mock.Anything, mock.Anything)
	})
}

func TestChatService_Suggestions(t *testing.T) {
	ctx := context.Background()
	svc, m := newChatService(0)
	userID := uuid.New()

	m.turns.On("GetMostFrequentPrompts", ctx, userID, 5).Return([]string{"Q1", "Q2"}, nil)

	got, err := svc.Suggestions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q2"}, got)
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, domain.DefaultSessionTitle, defaultTitle("   ", 100))
	assert.Equal(t, "héllo", defaultTitle("héllo wörld", 5))
	assert.Equal(t, "short", defaultTitle(" short ", 100))
}
