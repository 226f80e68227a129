package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the externally visible state of a task
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// IsTerminal reports whether polling can stop
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Task is a unit of work travelling through the broker
type Task struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	MaxRetries int             `json:"max_retries"`
	UniqueKey  string          `json:"unique_key,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Decode unmarshals the task payload into v
func (t *Task) Decode(v any) error {
	return json.Unmarshal(t.Payload, v)
}

// State is the result channel of a task.
// Retries keep the task PENDING; only the final outcome is recorded.
type State struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Payload   []byte    `json:"payload,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Broker stores tasks and their states
type Broker interface {
	// Enqueue makes the task available after delay
	Enqueue(ctx context.Context, task *Task, delay time.Duration) error
	// Dequeue blocks up to timeout; it returns nil, nil when nothing is ready
	Dequeue(ctx context.Context, timeout time.Duration) (*Task, error)
	// PromoteDue moves delayed tasks whose time has come onto the ready queue
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	// Len reports the number of ready tasks
	Len(ctx context.Context) (int64, error)

	SetState(ctx context.Context, state *State) error
	// GetState returns domain.ErrNotFound for unknown ids
	GetState(ctx context.Context, id string) (*State, error)

	// ClaimUnique reserves key for taskID. When the key is already held it
	// returns the holder's task id and false.
	ClaimUnique(ctx context.Context, key, taskID string, ttl time.Duration) (string, bool, error)
	// ReleaseUnique frees key only while taskID still holds it
	ReleaseUnique(ctx context.Context, key, taskID string) error
}

// DelayCounter is implemented by brokers that can report how many tasks
// wait for their retry backoff
type DelayCounter interface {
	Delayed(ctx context.Context) (int64, error)
}

// Pruner is implemented by brokers that keep finished states without an
// external TTL and must drop them periodically
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int, error)
}
