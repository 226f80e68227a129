package service

import (
	"context"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.ChatSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) GetOwned(ctx context.Context, id, userID uuid.UUID) (*domain.ChatSession, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, offset int) ([]domain.ChatSession, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionRepository) UpdateTitleSummary(ctx context.Context, id uuid.UUID, title, summary string) error {
	args := m.Called(ctx, id, title, summary)
	return args.Error(0)
}

func (m *MockSessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockTurnRepository mocks the TurnRepository interface
type MockTurnRepository struct {
	mock.Mock
}

func (m *MockTurnRepository) Create(ctx context.Context, turn *domain.Turn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}

func (m *MockTurnRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Turn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Turn), args.Error(1)
}

func (m *MockTurnRepository) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error) {
	args := m.Called(ctx, sessionID, limit)
	return args.Get(0).([]domain.Turn), args.Error(1)
}

func (m *MockTurnRepository) ListFirst(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error) {
	args := m.Called(ctx, sessionID, limit)
	return args.Get(0).([]domain.Turn), args.Error(1)
}

func (m *MockTurnRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockTurnRepository) GetMostFrequentPrompts(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]string), args.Error(1)
}

// MockProfileRepository mocks the ProfileRepository interface
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) MarkWelcomeSeen(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockLedgerRepository mocks the LedgerRepository interface
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) Get(ctx context.Context, id, userID uuid.UUID) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.ListFilter) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Archive(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, userID, at)
	return args.Error(0)
}

// MockActionItemRepository mocks the ActionItemRepository interface
type MockActionItemRepository struct {
	mock.Mock
}

func (m *MockActionItemRepository) CreateBatch(ctx context.Context, items []domain.ActionItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockActionItemRepository) Get(ctx context.Context, id, userID uuid.UUID) (*domain.ActionItem, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActionItem), args.Error(1)
}

func (m *MockActionItemRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.ListFilter) ([]domain.ActionItem, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]domain.ActionItem), args.Error(1)
}

func (m *MockActionItemRepository) Update(ctx context.Context, item *domain.ActionItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockActionItemRepository) Archive(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, userID, at)
	return args.Error(0)
}

// MockGreeter mocks the Greeter interface
type MockGreeter struct {
	mock.Mock
}

func (m *MockGreeter) Welcome(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

// MockTaskQueue mocks the TaskQueue interface. Submit options are applied
// to a scratch task so tests can assert on the unique key; the scratch
// tasks are kept in submitted.
type MockTaskQueue struct {
	mock.Mock
	submitted []*queue.Task
}

func (m *MockTaskQueue) Submit(ctx context.Context, name string, payload any, opts ...queue.SubmitOption) (string, error) {
	task := &queue.Task{Name: name}
	for _, opt := range opts {
		opt(task)
	}
	m.submitted = append(m.submitted, task)
	args := m.Called(ctx, name, payload, task.UniqueKey)
	return args.String(0), args.Error(1)
}

func (m *MockTaskQueue) Poll(ctx context.Context, id string) (*queue.State, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.State), args.Error(1)
}
