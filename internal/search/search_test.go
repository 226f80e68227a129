package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rrens/recruit-advisor/internal/agent"
	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	results []Result
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeBackend) Search(ctx context.Context, query string) ([]Result, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.results, f.err
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestExecutor_MissingCredentials(t *testing.T) {
	e := NewExecutor(nil, time.Second)

	out := e.Execute(context.Background(), map[string]any{"query": "coach email"})

	assert.Equal(t, agent.ToolStatusError, out.Status)
	assert.Contains(t, out.Payload["error"], "credentials are missing")
	assert.NotEmpty(t, out.Payload["fallback_instruction"])
	assert.Empty(t, out.Sources)
}

func TestExecutor_NoResults(t *testing.T) {
	e := NewExecutor(&fakeBackend{}, time.Second)

	out := e.Execute(context.Background(), map[string]any{"query": "Stanford volleyball coach email"})

	assert.Equal(t, agent.ToolStatusNoResults, out.Status)
	assert.Equal(t, "no_results", out.Payload["status"])
	assert.Equal(t, "No search results found for query: 'Stanford volleyball coach email'", out.Payload["message"])
	assert.NotEmpty(t, out.Payload["suggestion"])
}

func TestExecutor_Success(t *testing.T) {
	backend := &fakeBackend{results: []Result{
		{Rank: 1, Title: "Stanford Volleyball Staff", Snippet: "Head coach...", URL: "https://gostanford.com/staff", SourceDomain: "gostanford.com"},
		{Rank: 2, Title: "Recruiting Questionnaire", Snippet: "Fill out...", URL: "https://gostanford.com/recruit", SourceDomain: "gostanford.com"},
	}}
	e := NewExecutor(backend, time.Second, WithClock(func() time.Time { return fixedNow }))

	out := e.Execute(context.Background(), map[string]any{"query": "Stanford volleyball"})

	require.Equal(t, agent.ToolStatusSuccess, out.Status)
	assert.Equal(t, []string{"https://gostanford.com/staff", "https://gostanford.com/recruit"}, out.Sources)
	assert.Equal(t, 2, out.Payload["result_count"])
	assert.Equal(t, "Stanford volleyball", out.Payload["query"])

	ctxString := out.Payload["search_context"].(string)
	assert.Contains(t, ctxString, "Search Query: 'Stanford volleyball'\n")
	assert.Contains(t, ctxString, "Search Timestamp: 2026-03-14 09:30 UTC\n")
	assert.Contains(t, ctxString, "Total Results: 2\n\n")
	assert.Contains(t, ctxString, "[1] Stanford Volleyball Staff\n    Source: gostanford.com\n    Head coach...\n    URL: https://gostanford.com/staff\n\n")
}

func TestExecutor_Timeout(t *testing.T) {
	e := NewExecutor(&fakeBackend{delay: time.Second}, 20*time.Millisecond)

	out := e.Execute(context.Background(), map[string]any{"query": "slow"})

	assert.Equal(t, agent.ToolStatusError, out.Status)
	assert.Equal(t, "Search request timed out. Internet connection may be slow.", out.Payload["error"])
	assert.NotEmpty(t, out.Payload["suggestion"])
}

func TestExecutor_TransportFailure(t *testing.T) {
	e := NewExecutor(&fakeBackend{err: errors.New("connection refused")}, time.Second)

	out := e.Execute(context.Background(), map[string]any{"query": "x"})

	assert.Equal(t, agent.ToolStatusError, out.Status)
	assert.Equal(t, "Search service temporarily unavailable: connection refused", out.Payload["error"])
}

func TestExecutor_CachesOutcome(t *testing.T) {
	backend := &fakeBackend{results: []Result{{Rank: 1, Title: "t", URL: "https://a.example"}}}
	e := NewExecutor(backend, time.Second, WithCache(NewMemoryCache(time.Minute)))

	first := e.Execute(context.Background(), map[string]any{"query": "NAIA rules"})
	second := e.Execute(context.Background(), map[string]any{"query": "  naia   RULES "})

	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, first.Sources, second.Sources)
}

func TestExecutor_ErrorsAreNotCached(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	e := NewExecutor(backend, time.Second, WithCache(NewMemoryCache(time.Minute)))

	e.Execute(context.Background(), map[string]any{"query": "q"})
	e.Execute(context.Background(), map[string]any{"query": "q"})

	assert.Equal(t, 2, backend.calls)
}

func TestGoogleBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cx-1", r.URL.Query().Get("cx"))
		assert.Equal(t, "D1 soccer camps", r.URL.Query().Get("q"))
		assert.Equal(t, "8", r.URL.Query().Get("num"))
		assert.Equal(t, "key-1", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"title":"Camp A","snippet":"June camp","link":"https://a.example/camp","displayLink":"a.example"},
			{"link":"https://b.example"}
		]}`))
	}))
	defer srv.Close()

	backend, err := NewGoogleBackend(context.Background(), config.SearchConfig{
		APIKey:     "key-1",
		EngineID:   "cx-1",
		Endpoint:   srv.URL + "/",
		NumResults: 8,
	})
	require.NoError(t, err)
	require.NotNil(t, backend)

	results, err := backend.Search(context.Background(), "D1 soccer camps")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, Result{Rank: 1, Title: "Camp A", Snippet: "June camp", URL: "https://a.example/camp", SourceDomain: "a.example"}, results[0])
	assert.Equal(t, "No title", results[1].Title)
	assert.Equal(t, "Unknown source", results[1].SourceDomain)
}

func TestNew_WithoutCredentials(t *testing.T) {
	e, err := New(context.Background(), config.SearchConfig{Timeout: time.Second})
	require.NoError(t, err)

	out := e.Execute(context.Background(), map[string]any{"query": "x"})
	assert.Equal(t, agent.ToolStatusError, out.Status)
	assert.Contains(t, out.Payload["error"], "credentials")
}
