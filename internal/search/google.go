package search

import (
	"context"
	"fmt"

	"github.com/Rrens/recruit-advisor/internal/config"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// GoogleBackend queries the Google Programmable Search Engine
type GoogleBackend struct {
	svc      *customsearch.Service
	engineID string
	num      int64
}

// NewGoogleBackend returns nil when the API key or engine id is missing
func NewGoogleBackend(ctx context.Context, cfg config.SearchConfig, opts ...option.ClientOption) (*GoogleBackend, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, nil
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}

	num := cfg.NumResults
	if num <= 0 || num > 10 {
		num = 8
	}

	return &GoogleBackend{svc: svc, engineID: cfg.EngineID, num: num}, nil
}

// Search runs one query and ranks results from 1
func (g *GoogleBackend) Search(ctx context.Context, query string) ([]Result, error) {
	resp, err := g.svc.Cse.List().Cx(g.engineID).Q(query).Num(g.num).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Items))
	for i, item := range resp.Items {
		results = append(results, Result{
			Rank:         i + 1,
			Title:        orDefault(item.Title, "No title"),
			Snippet:      orDefault(item.Snippet, "No description available"),
			URL:          orDefault(item.Link, "No URL"),
			SourceDomain: orDefault(item.DisplayLink, "Unknown source"),
		})
	}
	return results, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// New builds the search tool from configuration. Missing credentials yield
// a tool that reports them to the model instead of failing.
func New(ctx context.Context, cfg config.SearchConfig, opts ...Option) (*Executor, error) {
	google, err := NewGoogleBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var backend Backend
	if google != nil {
		backend = google
	}

	opts = append([]Option{WithRateLimit(cfg.RatePerSecond, cfg.RateBurst)}, opts...)
	return NewExecutor(backend, cfg.Timeout, opts...), nil
}
