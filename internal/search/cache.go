package search

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps outcomes in process memory
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates an in-process cache with the given TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, query string) (*Outcome, bool) {
	v, ok := c.store.Get(CacheKey(query))
	if !ok {
		return nil, false
	}
	outcome, ok := v.(*Outcome)
	return outcome, ok
}

func (c *MemoryCache) Set(_ context.Context, query string, outcome *Outcome) error {
	c.store.SetDefault(CacheKey(query), outcome)
	return nil
}

// Flush drops every cached outcome and reports how many were removed
func (c *MemoryCache) Flush(_ context.Context) (int64, error) {
	n := int64(c.store.ItemCount())
	c.store.Flush()
	return n, nil
}

// CacheKey normalizes a query so trivially different spellings share an entry
func CacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
