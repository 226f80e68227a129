package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/Rrens/recruit-advisor/internal/agent"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/Rrens/recruit-advisor/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ToolName is the name the model uses to invoke web search
const ToolName = "google_search"

const toolDescription = "Searches the internet for current, factual information about college athletics recruiting, " +
	"coach contact information, program statistics, recruiting rules, deadlines, and recent news.\n\n" +
	"**WHEN TO USE THIS TOOL:**\n" +
	"- User asks about specific colleges, coaches, or athletic programs\n" +
	"- User needs current recruiting deadlines, rules, or regulations (NCAA/NAIA)\n" +
	"- User needs coach contact information (emails, phone numbers)\n" +
	"- User asks about recent program achievements, rankings, or news\n" +
	"- Any question requiring facts from after your knowledge cutoff\n\n" +
	"**SEARCH QUERY BEST PRACTICES:**\n" +
	"- Be specific: 'Division 1 football recruiting rules 2025' rather than 'football recruiting'\n" +
	"- Include context: '[Sport] [Division] [College Name] coach contact'\n" +
	"- Use official terminology: 'NCAA Division 1', 'NAIA', 'commitment period'"

// Result is one ranked web result
type Result struct {
	Rank         int    `json:"rank"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
	URL          string `json:"url"`
	SourceDomain string `json:"source_domain"`
}

// Backend performs the raw search call
type Backend interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Cache stores normalized outcomes per query
type Cache interface {
	Get(ctx context.Context, query string) (*Outcome, bool)
	Set(ctx context.Context, query string, outcome *Outcome) error
}

// Executor is the web search tool
type Executor struct {
	backend    Backend
	configured bool
	timeout    time.Duration
	limiter    *rate.Limiter
	cache      Cache
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures an Executor
type Option func(*Executor)

// WithCache enables result caching
func WithCache(c Cache) Option {
	return func(e *Executor) { e.cache = c }
}

// WithRateLimit bounds outgoing search calls per second
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Executor) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithMetrics records cache and call counters
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// NewExecutor creates the search tool. A nil backend means credentials are missing.
func NewExecutor(backend Backend, timeout time.Duration, opts ...Option) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	e := &Executor{
		backend:    backend,
		configured: backend != nil,
		timeout:    timeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Spec declares the tool to the model
func (e *Executor) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        ToolName,
		Description: toolDescription,
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"query": {
					Type: "string",
					Description: "The specific, detailed search query including sport, division, year and college name when relevant. " +
						"Examples: 'Stanford football coach email 2025', 'NCAA Division 1 volleyball recruiting dead period 2025'",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs a search and normalizes every outcome into a payload
func (e *Executor) Execute(ctx context.Context, args map[string]any) agent.ToolOutput {
	query, _ := args["query"].(string)
	outcome := e.Search(ctx, query)

	status := outcome.Status
	if status == "" {
		status = agent.ToolStatusError
	}
	e.metrics.ObserveToolCall(ToolName, status)

	return agent.ToolOutput{
		Status:  status,
		Payload: outcome.Payload(),
		Sources: outcome.Sources(),
	}
}

// Search returns the normalized outcome for query. It never returns an error.
func (e *Executor) Search(ctx context.Context, query string) *Outcome {
	query = strings.TrimSpace(query)
	logger := log.With().Str("tool", ToolName).Str("query", query).Logger()

	if !e.configured {
		logger.Warn().Msg("Search credentials are missing")
		return missingCredentials()
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, query); ok {
			e.metrics.ObserveCache(true)
			return cached
		}
		e.metrics.ObserveCache(false)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			logger.Warn().Err(err).Msg("Search rate limiter aborted")
			return unavailable(err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	logger.Info().Msg("Executing search")
	results, err := e.backend.Search(callCtx, query)
	if err != nil {
		if isTimeout(err) {
			logger.Warn().Err(err).Msg("Search request timed out")
			return timedOut()
		}
		logger.Error().Err(err).Msg("Search API request failed")
		return unavailable(err)
	}

	var outcome *Outcome
	if len(results) == 0 {
		outcome = noResults(query)
	} else {
		outcome = &Outcome{
			Status:    agent.ToolStatusSuccess,
			Query:     query,
			Results:   results,
			Timestamp: e.now().UTC(),
		}
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, query, outcome); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache search outcome")
		}
	}

	return outcome
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Outcome is the normalized result of one search, success or not
type Outcome struct {
	Status              string    `json:"status"`
	Query               string    `json:"query,omitempty"`
	Results             []Result  `json:"results,omitempty"`
	Timestamp           time.Time `json:"timestamp,omitempty"`
	Message             string    `json:"message,omitempty"`
	Error               string    `json:"error,omitempty"`
	Suggestion          string    `json:"suggestion,omitempty"`
	FallbackInstruction string    `json:"fallback_instruction,omitempty"`
}

// Sources returns result URLs in rank order
func (o *Outcome) Sources() []string {
	if o.Status != agent.ToolStatusSuccess {
		return nil
	}
	sources := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		sources = append(sources, r.URL)
	}
	return sources
}

// Context renders the results as a block of text for the model
func (o *Outcome) Context() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search Query: '%s'\n", o.Query)
	fmt.Fprintf(&b, "Search Timestamp: %s\n", o.Timestamp.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Total Results: %d\n\n", len(o.Results))
	for _, r := range o.Results {
		fmt.Fprintf(&b, "[%d] %s\n", r.Rank, r.Title)
		fmt.Fprintf(&b, "    Source: %s\n", r.SourceDomain)
		fmt.Fprintf(&b, "    %s\n", r.Snippet)
		fmt.Fprintf(&b, "    URL: %s\n\n", r.URL)
	}
	return b.String()
}

// Payload renders the outcome in the shape the model consumes
func (o *Outcome) Payload() map[string]any {
	switch o.Status {
	case agent.ToolStatusSuccess:
		results := make([]any, 0, len(o.Results))
		for _, r := range o.Results {
			results = append(results, map[string]any{
				"rank":          r.Rank,
				"title":         r.Title,
				"snippet":       r.Snippet,
				"url":           r.URL,
				"source_domain": r.SourceDomain,
			})
		}
		sources := make([]any, 0, len(o.Results))
		for _, s := range o.Sources() {
			sources = append(sources, s)
		}
		return map[string]any{
			"status":         o.Status,
			"query":          o.Query,
			"timestamp":      o.Timestamp.UTC().Format(time.RFC3339),
			"result_count":   len(o.Results),
			"results":        results,
			"search_context": o.Context(),
			"sources":        sources,
		}
	case agent.ToolStatusNoResults:
		return map[string]any{
			"status":     o.Status,
			"message":    o.Message,
			"suggestion": o.Suggestion,
		}
	default:
		payload := map[string]any{"error": o.Error}
		if o.FallbackInstruction != "" {
			payload["fallback_instruction"] = o.FallbackInstruction
		}
		if o.Suggestion != "" {
			payload["suggestion"] = o.Suggestion
		}
		return payload
	}
}

func missingCredentials() *Outcome {
	return &Outcome{
		Status: agent.ToolStatusError,
		Error:  "CRITICAL: Search API credentials are missing. Unable to retrieve current information.",
		FallbackInstruction: "Inform the user that you cannot access live search results right now, but offer to provide " +
			"general guidance based on your training data with a clear disclaimer about currency.",
	}
}

func timedOut() *Outcome {
	return &Outcome{
		Status:     agent.ToolStatusError,
		Error:      "Search request timed out. Internet connection may be slow.",
		Suggestion: "Provide an answer based on your training data with a disclaimer.",
	}
}

func unavailable(err error) *Outcome {
	return &Outcome{
		Status:     agent.ToolStatusError,
		Error:      fmt.Sprintf("Search service temporarily unavailable: %v", err),
		Suggestion: "Apologize to the user and offer general guidance with a clear disclaimer.",
	}
}

func noResults(query string) *Outcome {
	return &Outcome{
		Status:     agent.ToolStatusNoResults,
		Query:      query,
		Message:    fmt.Sprintf("No search results found for query: '%s'", query),
		Suggestion: "Try rephrasing your search with different keywords or check for typos.",
	}
}
