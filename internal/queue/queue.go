package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Queue is the submit/poll surface used by the request side
type Queue struct {
	broker     Broker
	maxRetries int
	uniqueTTL  time.Duration
	now        func() time.Time
}

// NewQueue creates a queue over broker
func NewQueue(broker Broker, maxRetries int, uniqueTTL time.Duration) *Queue {
	if uniqueTTL <= 0 {
		uniqueTTL = 10 * time.Minute
	}
	return &Queue{
		broker:     broker,
		maxRetries: maxRetries,
		uniqueTTL:  uniqueTTL,
		now:        time.Now,
	}
}

// SubmitOption configures a single submission
type SubmitOption func(*Task)

// WithUniqueKey deduplicates submissions while a task with the same key is in flight
func WithUniqueKey(key string) SubmitOption {
	return func(t *Task) { t.UniqueKey = key }
}

// WithMaxRetries overrides the queue-wide retry ceiling
func WithMaxRetries(n int) SubmitOption {
	return func(t *Task) { t.MaxRetries = n }
}

// Submit enqueues a task and returns its id immediately.
// A duplicate unique key returns the id of the task already in flight.
func (q *Queue) Submit(ctx context.Context, name string, payload any, opts ...SubmitOption) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := &Task{
		ID:         uuid.New().String(),
		Name:       name,
		Payload:    data,
		MaxRetries: q.maxRetries,
		EnqueuedAt: q.now().UTC(),
	}
	for _, opt := range opts {
		opt(task)
	}

	if task.UniqueKey != "" {
		holder, claimed, err := q.broker.ClaimUnique(ctx, task.UniqueKey, task.ID, q.uniqueTTL)
		if err != nil {
			return "", fmt.Errorf("failed to claim unique key: %w", err)
		}
		if !claimed {
			return holder, nil
		}
	}

	if err := q.broker.SetState(ctx, &State{
		ID:        task.ID,
		Name:      name,
		Status:    StatusPending,
		Payload:   data,
		UpdatedAt: task.EnqueuedAt,
	}); err != nil {
		return "", fmt.Errorf("failed to record task state: %w", err)
	}

	if err := q.broker.Enqueue(ctx, task, 0); err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	return task.ID, nil
}

// Poll returns the current state of a task
func (q *Queue) Poll(ctx context.Context, id string) (*State, error) {
	return q.broker.GetState(ctx, id)
}
