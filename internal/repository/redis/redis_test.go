package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/Rrens/recruit-advisor/internal/search"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromRedis(rdb), mr
}

func TestBroker_EnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	b := NewBroker(client, time.Hour)

	task := &queue.Task{ID: "t1", Name: "turn", Payload: []byte(`{"prompt":"hi"}`), MaxRetries: 3}
	require.NoError(t, b.Enqueue(ctx, task, 0))

	n, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := b.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "turn", got.Name)
	assert.JSONEq(t, `{"prompt":"hi"}`, string(got.Payload))
}

func TestBroker_FIFO(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	b := NewBroker(client, time.Hour)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, b.Enqueue(ctx, &queue.Task{ID: id, Name: "x"}, 0))
	}
	for _, want := range []string{"a", "b", "c"} {
		got, err := b.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got.ID)
	}
}

func TestBroker_DequeueEmpty(t *testing.T) {
	client, _ := newTestClient(t)
	b := NewBroker(client, time.Hour)

	got, err := b.Dequeue(context.Background(), time.Second)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestBroker_DelayedPromotion(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	b := NewBroker(client, time.Hour)

	require.NoError(t, b.Enqueue(ctx, &queue.Task{ID: "late", Name: "x", Attempt: 1}, time.Minute))

	n, _ := b.Len(ctx)
	assert.Zero(t, n)
	delayed, _ := b.Delayed(ctx)
	assert.Equal(t, int64(1), delayed)

	promoted, err := b.PromoteDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, promoted)

	promoted, err = b.PromoteDue(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	got, err := b.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late", got.ID)
	assert.Equal(t, 1, got.Attempt)
}

func TestBroker_State(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	b := NewBroker(client, time.Hour)

	_, err := b.GetState(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, b.SetState(ctx, &queue.State{ID: "t1", Name: "turn", Status: queue.StatusSuccess, Result: "answer"}))

	state, err := b.GetState(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, queue.StatusSuccess, state.Status)
	assert.Equal(t, "answer", state.Result)

	mr.FastForward(2 * time.Hour)
	_, err = b.GetState(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBroker_UniqueClaim(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	b := NewBroker(client, time.Hour)

	holder, ok, err := b.ClaimUnique(ctx, "summary:s1", "t1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", holder)

	holder, ok, err = b.ClaimUnique(ctx, "summary:s1", "t2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "t1", holder)

	// only the holder frees the key
	require.NoError(t, b.ReleaseUnique(ctx, "summary:s1", "t2"))
	holder, ok, err = b.ClaimUnique(ctx, "summary:s1", "t2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "t1", holder)

	require.NoError(t, b.ReleaseUnique(ctx, "summary:s1", "t1"))

	_, ok, err = b.ClaimUnique(ctx, "summary:s1", "t3", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBroker_ExpiredClaimKeptByNewHolder(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	b := NewBroker(client, time.Hour)

	_, ok, err := b.ClaimUnique(ctx, "summary:s1", "slow", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok, err = b.ClaimUnique(ctx, "summary:s1", "fresh", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// the slow task finishing late must not free the fresh claim
	require.NoError(t, b.ReleaseUnique(ctx, "summary:s1", "slow"))
	holder, ok, err := b.ClaimUnique(ctx, "summary:s1", "third", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "fresh", holder)
}

func TestBroker_WithQueue(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	b := NewBroker(client, time.Hour)
	q := queue.NewQueue(b, 3, time.Minute)

	w := queue.NewWorker(b, queue.WorkerConfig{PollTimeout: time.Second}, nil, nil)
	w.Handle("echo", func(ctx context.Context, task *queue.Task) (string, error) { return "pong", nil })

	id, err := q.Submit(ctx, "echo", map[string]string{"msg": "ping"})
	require.NoError(t, err)

	state, err := q.Poll(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusPending, state.Status)

	task, err := b.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	w.Process(ctx, task)

	state, err = q.Poll(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusSuccess, state.Status)
	assert.Equal(t, "pong", state.Result)
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	l := NewLocker(client)

	release, err := l.Acquire(ctx, "session:1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "session:1", time.Minute)
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	assert.True(t, mr.Exists(lockPrefix+"session:1"))

	release()
	assert.False(t, mr.Exists(lockPrefix+"session:1"))

	// An expired holder must not release a newer lock
	stale, err := l.Acquire(ctx, "session:2", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)
	fresh, err := l.Acquire(ctx, "session:2", time.Minute)
	require.NoError(t, err)
	stale()
	assert.True(t, mr.Exists(lockPrefix+"session:2"))
	fresh()
}

func TestSearchCache(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	c := NewSearchCache(client, time.Minute)

	_, ok := c.Get(ctx, "d1 soccer camps")
	assert.False(t, ok)

	outcome := &search.Outcome{
		Status: "success",
		Query:  "D1 soccer camps",
		Results: []search.Result{
			{Rank: 1, Title: "Camps", URL: "https://example.com/camps", SourceDomain: "example.com"},
		},
	}
	require.NoError(t, c.Set(ctx, "D1 soccer camps", outcome))

	got, ok := c.Get(ctx, "  d1   SOCCER camps ")
	require.True(t, ok)
	assert.Equal(t, []string{"https://example.com/camps"}, got.Sources())

	require.NoError(t, c.Set(ctx, "another", outcome))
	require.NoError(t, client.rdb.Set(ctx, "unrelated", "x", 0).Err())

	n, err := c.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("unrelated"))

	require.NoError(t, c.Set(ctx, "expiring", outcome))
	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "expiring")
	assert.False(t, ok)
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	limiter := NewRateLimiter(client, 2, 1)
	limiter.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 30, 0, time.UTC) }

	for i := 0; i < 3; i++ {
		allowed, remaining, reset, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
		assert.Equal(t, time.Date(2026, 10, 16, 12, 1, 0, 0, time.UTC), reset)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	allowed, _, _, err = limiter.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, allowed)

	limiter.now = func() time.Time { return time.Date(2026, 10, 16, 12, 1, 5, 0, time.UTC) }
	allowed, _, _, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "user-1"))
}
