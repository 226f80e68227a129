// Package lock serializes work on a single key across workers.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
)

// Locker acquires non-blocking exclusive locks.
// Acquire returns domain.ErrSessionBusy when the key is held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Memory is a process-local Locker
type Memory struct {
	mu   sync.Mutex
	held map[string]hold
	now  func() time.Time
}

type hold struct {
	token   string
	expires time.Time
}

// NewMemory creates a process-local locker
func NewMemory() *Memory {
	return &Memory{
		held: make(map[string]hold),
		now:  time.Now,
	}
}

func (m *Memory) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if h, ok := m.held[key]; ok && now.Before(h.expires) {
		return nil, domain.ErrSessionBusy
	}

	token := uuid.New().String()
	m.held[key] = hold{token: token, expires: now.Add(ttl)}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if h, ok := m.held[key]; ok && h.token == token {
			delete(m.held, key)
		}
	}, nil
}
