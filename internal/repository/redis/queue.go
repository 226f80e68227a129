package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/redis/go-redis/v9"
)

const (
	queueReadyKey     = "queue:ready"
	queueDelayedKey   = "queue:delayed"
	queueStatePrefix  = "queue:state:"
	queueUniquePrefix = "queue:unique:"
)

// Broker implements queue.Broker on Redis.
// Ready tasks live in a list, delayed tasks in a sorted set scored by due time.
type Broker struct {
	client    *Client
	resultTTL time.Duration
}

// NewBroker creates a Redis-backed task broker
func NewBroker(client *Client, resultTTL time.Duration) *Broker {
	return &Broker{client: client, resultTTL: resultTTL}
}

func (b *Broker) Enqueue(ctx context.Context, task *queue.Task, delay time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if delay > 0 {
		due := time.Now().Add(delay).UnixMilli()
		return b.client.rdb.ZAdd(ctx, queueDelayedKey, redis.Z{Score: float64(due), Member: data}).Err()
	}
	return b.client.rdb.LPush(ctx, queueReadyKey, data).Err()
}

func (b *Broker) Dequeue(ctx context.Context, timeout time.Duration) (*queue.Task, error) {
	res, err := b.client.rdb.BRPop(ctx, timeout, queueReadyKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop task: %w", err)
	}

	var task queue.Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// PromoteDue moves due tasks to the ready list. ZREM decides the winner
// when several workers promote concurrently.
func (b *Broker) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	members, err := b.client.rdb.ZRangeByScore(ctx, queueDelayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read delayed tasks: %w", err)
	}

	promoted := 0
	for _, m := range members {
		removed, err := b.client.rdb.ZRem(ctx, queueDelayedKey, m).Result()
		if err != nil {
			return promoted, fmt.Errorf("failed to claim delayed task: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := b.client.rdb.LPush(ctx, queueReadyKey, m).Err(); err != nil {
			return promoted, fmt.Errorf("failed to promote task: %w", err)
		}
		promoted++
	}
	return promoted, nil
}

func (b *Broker) Len(ctx context.Context) (int64, error) {
	return b.client.rdb.LLen(ctx, queueReadyKey).Result()
}

// Delayed reports the number of tasks waiting for their backoff
func (b *Broker) Delayed(ctx context.Context) (int64, error) {
	return b.client.rdb.ZCard(ctx, queueDelayedKey).Result()
}

func (b *Broker) SetState(ctx context.Context, state *queue.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal task state: %w", err)
	}
	return b.client.rdb.Set(ctx, queueStatePrefix+state.ID, data, b.resultTTL).Err()
}

func (b *Broker) GetState(ctx context.Context, id string) (*queue.State, error) {
	data, err := b.client.rdb.Get(ctx, queueStatePrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task state: %w", err)
	}

	var state queue.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task state: %w", err)
	}
	return &state, nil
}

func (b *Broker) ClaimUnique(ctx context.Context, key, taskID string, ttl time.Duration) (string, bool, error) {
	fullKey := queueUniquePrefix + key

	ok, err := b.client.rdb.SetNX(ctx, fullKey, taskID, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to claim unique key: %w", err)
	}
	if ok {
		return taskID, true, nil
	}

	holder, err := b.client.rdb.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; try once more
		ok, err = b.client.rdb.SetNX(ctx, fullKey, taskID, ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("failed to claim unique key: %w", err)
		}
		if ok {
			return taskID, true, nil
		}
		holder, err = b.client.rdb.Get(ctx, fullKey).Result()
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read unique key: %w", err)
	}
	return holder, false, nil
}

// ReleaseUnique deletes the key only while taskID still holds it
func (b *Broker) ReleaseUnique(ctx context.Context, key, taskID string) error {
	if err := releaseScript.Run(ctx, b.client.rdb, []string{queueUniquePrefix + key}, taskID).Err(); err != nil {
		return fmt.Errorf("failed to release unique key: %w", err)
	}
	return nil
}
