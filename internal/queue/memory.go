package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
)

type delayedTask struct {
	task *Task
	due  time.Time
}

type uniqueClaim struct {
	taskID  string
	expires time.Time
}

// MemoryBroker is an in-process broker for tests and single-binary deployments
type MemoryBroker struct {
	mu      sync.Mutex
	ready   []*Task
	delayed []delayedTask
	states  map[string]*State
	unique  map[string]uniqueClaim
	notify  chan struct{}
	now     func() time.Time
}

// NewMemoryBroker creates an empty broker
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		states: make(map[string]*State),
		unique: make(map[string]uniqueClaim),
		notify: make(chan struct{}, 1),
		now:    time.Now,
	}
}

func (b *MemoryBroker) Enqueue(ctx context.Context, task *Task, delay time.Duration) error {
	cp := *task

	b.mu.Lock()
	if delay > 0 {
		b.delayed = append(b.delayed, delayedTask{task: &cp, due: b.now().Add(delay)})
		b.mu.Unlock()
		return nil
	}
	b.ready = append(b.ready, &cp)
	b.mu.Unlock()

	b.signal()
	return nil
}

func (b *MemoryBroker) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		b.mu.Lock()
		if len(b.ready) > 0 {
			task := b.ready[0]
			b.ready = b.ready[1:]
			more := len(b.ready) > 0
			b.mu.Unlock()
			if more {
				b.signal()
			}
			return task, nil
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (b *MemoryBroker) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	b.mu.Lock()
	sort.SliceStable(b.delayed, func(i, j int) bool { return b.delayed[i].due.Before(b.delayed[j].due) })

	n := 0
	for n < len(b.delayed) && !b.delayed[n].due.After(now) {
		b.ready = append(b.ready, b.delayed[n].task)
		n++
	}
	b.delayed = b.delayed[n:]
	b.mu.Unlock()

	if n > 0 {
		b.signal()
	}
	return n, nil
}

func (b *MemoryBroker) Len(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.ready)), nil
}

// Delayed reports the number of tasks waiting for their backoff to expire
func (b *MemoryBroker) Delayed(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.delayed)), nil
}

func (b *MemoryBroker) SetState(ctx context.Context, state *State) error {
	cp := *state
	b.mu.Lock()
	b.states[state.ID] = &cp
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroker) GetState(ctx context.Context, id string) (*State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.states[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// Prune drops terminal states last updated before the cutoff
func (b *MemoryBroker) Prune(ctx context.Context, before time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for id, s := range b.states {
		if s.Status.IsTerminal() && s.UpdatedAt.Before(before) {
			delete(b.states, id)
			n++
		}
	}
	return n, nil
}

func (b *MemoryBroker) ClaimUnique(ctx context.Context, key, taskID string, ttl time.Duration) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if c, ok := b.unique[key]; ok && now.Before(c.expires) {
		return c.taskID, false, nil
	}
	b.unique[key] = uniqueClaim{taskID: taskID, expires: now.Add(ttl)}
	return taskID, true, nil
}

func (b *MemoryBroker) ReleaseUnique(ctx context.Context, key, taskID string) error {
	b.mu.Lock()
	if c, ok := b.unique[key]; ok && c.taskID == taskID {
		delete(b.unique, key)
	}
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroker) signal() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
