package redis

import (
	"context"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const lockPrefix = "lock:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker implements lock.Locker with SET NX and a token-checked release
type Locker struct {
	client *Client
}

// NewLocker creates a Redis-backed locker
func NewLocker(client *Client) *Locker {
	return &Locker{client: client}
}

// Acquire takes the lock for key or returns domain.ErrSessionBusy
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := lockPrefix + key
	token := uuid.New().String()

	ok, err := l.client.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, domain.NewTransientError("acquire lock", err)
	}
	if !ok {
		return nil, domain.ErrSessionBusy
	}

	return func() {
		// The caller's context may already be done
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client.rdb, []string{fullKey}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to release lock")
		}
	}, nil
}
