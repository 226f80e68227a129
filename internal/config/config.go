package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // postgres or sqlite
	SQLitePath string `mapstructure:"sqlite_path"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConns       int32  `mapstructure:"max_conns"`
	MinConns       int32  `mapstructure:"min_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type LLMConfig struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	Temperature     float32         `mapstructure:"temperature"`
	Gemini          GeminiConfig    `mapstructure:"gemini"`
	OpenAI          OpenAIConfig    `mapstructure:"openai"`
	Anthropic       AnthropicConfig `mapstructure:"anthropic"`
	Ollama          OllamaConfig    `mapstructure:"ollama"`
	DeepSeek        DeepSeekConfig  `mapstructure:"deepseek"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type DeepSeekConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// SearchConfig configures the web search tool
type SearchConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	EngineID      string        `mapstructure:"engine_id"`
	Endpoint      string        `mapstructure:"endpoint"`
	NumResults    int64         `mapstructure:"num_results"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	RateBurst     int           `mapstructure:"rate_burst"`
}

// ChatConfig configures turn orchestration and prompt assembly
type ChatConfig struct {
	MaxSessionsPerUser int    `mapstructure:"max_sessions_per_user"`
	HistoryTurns       int    `mapstructure:"history_turns"`
	SummaryTurns       int    `mapstructure:"summary_turns"`
	PersonaPrompt      string `mapstructure:"persona_prompt"`
	WorkflowPrompt     string `mapstructure:"workflow_prompt"`
	WelcomePrompt      string `mapstructure:"welcome_prompt"`
	TitleMaxLen        int    `mapstructure:"title_max_len"`
	SourcesLimit       int    `mapstructure:"sources_limit"`
	SummaryMaxRetries  int    `mapstructure:"summary_max_retries"`
}

// QueueConfig configures the async execution substrate
type QueueConfig struct {
	Backend        string        `mapstructure:"backend"` // redis or memory
	Workers        int           `mapstructure:"workers"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	ResultTTL      time.Duration `mapstructure:"result_ttl"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
	SessionLockTTL time.Duration `mapstructure:"session_lock_ttl"`
	PromoteEvery   time.Duration `mapstructure:"promote_every"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsProduction reports whether the process runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	// A missing file falls back to defaults and env vars
	if _, statErr := os.Stat(configPath); statErr == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Store
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "./data/advisor.db")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "advisor")
	v.SetDefault("database.database", "advisor")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.migrations_path", "")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Auth
	v.SetDefault("auth.access_token_ttl", "24h")

	// LLM
	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("llm.deepseek.model", "deepseek-chat")
	v.SetDefault("llm.deepseek.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.ollama.default_model", "llama3.1")

	// Search
	v.SetDefault("search.num_results", 8)
	v.SetDefault("search.timeout", "10s")
	v.SetDefault("search.cache_ttl", "5m")
	v.SetDefault("search.rate_per_second", 5)
	v.SetDefault("search.rate_burst", 5)

	// Chat
	v.SetDefault("chat.max_sessions_per_user", 3)
	v.SetDefault("chat.history_turns", 10)
	v.SetDefault("chat.summary_turns", 2)
	v.SetDefault("chat.persona_prompt", "recruiter_core_prompt")
	v.SetDefault("chat.workflow_prompt", "ui_workflow_knowledge")
	v.SetDefault("chat.welcome_prompt", "welcome_message")
	v.SetDefault("chat.title_max_len", 100)
	v.SetDefault("chat.sources_limit", 5)
	v.SetDefault("chat.summary_max_retries", 1)

	// Queue
	v.SetDefault("queue.backend", "redis")
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.retry_backoff", "60s")
	v.SetDefault("queue.result_ttl", "24h")
	v.SetDefault("queue.poll_timeout", "5s")
	v.SetDefault("queue.job_timeout", "3m")
	v.SetDefault("queue.session_lock_ttl", "5m")
	v.SetDefault("queue.promote_every", "1s")

	// Security
	v.SetDefault("security.rate_limit.requests_per_minute", 60)
	v.SetDefault("security.rate_limit.burst", 10)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("env", "ENV")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")

	// Store
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.sqlite_path", "SQLITE_PATH")

	// Database
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.port", "POSTGRES_PORT")
	v.BindEnv("database.user", "POSTGRES_USER")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")
	v.BindEnv("database.database", "POSTGRES_DB")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	// LLM API Keys
	v.BindEnv("llm.default_provider", "LLM_PROVIDER")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.deepseek.api_key", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Search
	v.BindEnv("search.api_key", "GOOGLE_API_KEY")
	v.BindEnv("search.engine_id", "CUSTOM_SEARCH_ENGINE_ID")

	// Chat
	v.BindEnv("chat.persona_prompt", "PROMPT_COMPONENT_NAME")

	// Queue
	v.BindEnv("queue.backend", "QUEUE_BACKEND")
	v.BindEnv("queue.workers", "QUEUE_WORKERS")
}
