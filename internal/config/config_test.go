package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Chat.MaxSessionsPerUser)
	assert.Equal(t, 10, cfg.Chat.HistoryTurns)
	assert.Equal(t, "recruiter_core_prompt", cfg.Chat.PersonaPrompt)
	assert.Equal(t, int64(8), cfg.Search.NumResults)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Queue.RetryBackoff)
	assert.Equal(t, 3, cfg.Queue.MaxRetries)
	assert.Equal(t, 1, cfg.Chat.SummaryMaxRetries)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Gemini.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PROMPT_COMPONENT_NAME", "coach_prompt")
	t.Setenv("GOOGLE_API_KEY", "search-key")
	t.Setenv("CUSTOM_SEARCH_ENGINE_ID", "cx-1")
	t.Setenv("QUEUE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "coach_prompt", cfg.Chat.PersonaPrompt)
	assert.Equal(t, "search-key", cfg.Search.APIKey)
	assert.Equal(t, "cx-1", cfg.Search.EngineID)
	assert.Equal(t, "memory", cfg.Queue.Backend)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("chat:\n  max_sessions_per_user: 5\nstore:\n  driver: sqlite\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Chat.MaxSessionsPerUser)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Chat.HistoryTurns)
}
