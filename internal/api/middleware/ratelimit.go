package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Rrens/recruit-advisor/internal/api/response"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Limiter decides whether a caller may proceed
// Returns (allowed, remaining, resetTime, error)
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int, time.Time, error)
}

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	limiter Limiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit applies rate limiting based on user ID
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthorized")
			return
		}

		allowed, remaining, resetTime, err := m.limiter.Allow(r.Context(), userID.String())
		if err != nil {
			// fail open
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("Rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", resetTime.UTC().Format(time.RFC3339))

		if !allowed {
			response.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// MemoryLimiter is a per-process token bucket per key, used when Redis is not configured
type MemoryLimiter struct {
	buckets *gocache.Cache
	limit   rate.Limit
	burst   int
}

// NewMemoryLimiter allows requestsPerMinute sustained plus burst
func NewMemoryLimiter(requestsPerMinute, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: gocache.New(10*time.Minute, time.Minute),
		limit:   rate.Limit(float64(requestsPerMinute) / 60),
		burst:   requestsPerMinute + burst,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, time.Time, error) {
	var limiter *rate.Limiter
	if v, ok := l.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.limit, l.burst)
		if err := l.buckets.Add(key, limiter, gocache.DefaultExpiration); err != nil {
			// lost the race to another request
			v, _ := l.buckets.Get(key)
			limiter = v.(*rate.Limiter)
		}
	}
	// keep active callers from expiring
	l.buckets.SetDefault(key, limiter)

	now := time.Now()
	allowed := limiter.AllowN(now, 1)
	remaining := int(limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, now.Add(time.Minute).Truncate(time.Minute), nil
}
