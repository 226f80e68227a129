package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rrens/recruit-advisor/internal/search"
	"github.com/rs/zerolog/log"
)

const searchCachePrefix = "search:"

// SearchCache stores normalized search outcomes in Redis
type SearchCache struct {
	client *Client
	ttl    time.Duration
}

// NewSearchCache creates a new search cache
func NewSearchCache(client *Client, ttl time.Duration) *SearchCache {
	return &SearchCache{client: client, ttl: ttl}
}

func searchKey(query string) string {
	return searchCachePrefix + search.CacheKey(query)
}

// Get retrieves a cached outcome for a query
func (c *SearchCache) Get(ctx context.Context, query string) (*search.Outcome, bool) {
	data, err := c.client.rdb.Get(ctx, searchKey(query)).Bytes()
	if err != nil {
		return nil, false // Cache miss
	}

	var outcome search.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		log.Warn().Err(err).Msg("Dropping unreadable search cache entry")
		return nil, false
	}

	return &outcome, true
}

// Set caches the outcome for a query
func (c *SearchCache) Set(ctx context.Context, query string, outcome *search.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal search outcome: %w", err)
	}

	return c.client.rdb.Set(ctx, searchKey(query), data, c.ttl).Err()
}

// Flush removes all cached outcomes
func (c *SearchCache) Flush(ctx context.Context) (int64, error) {
	return c.client.scanDelete(ctx, searchCachePrefix+"*")
}
