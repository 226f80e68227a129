// Package app wires configuration into the stores, queue, model providers and
// services shared by the server and worker processes.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rrens/recruit-advisor/internal/agent"
	"github.com/Rrens/recruit-advisor/internal/analytics"
	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/jobs"
	"github.com/Rrens/recruit-advisor/internal/llm"
	"github.com/Rrens/recruit-advisor/internal/llm/anthropic"
	"github.com/Rrens/recruit-advisor/internal/llm/deepseek"
	"github.com/Rrens/recruit-advisor/internal/llm/gemini"
	"github.com/Rrens/recruit-advisor/internal/llm/ollama"
	"github.com/Rrens/recruit-advisor/internal/llm/openai"
	"github.com/Rrens/recruit-advisor/internal/lock"
	"github.com/Rrens/recruit-advisor/internal/metrics"
	"github.com/Rrens/recruit-advisor/internal/prompt"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/Rrens/recruit-advisor/internal/repository"
	"github.com/Rrens/recruit-advisor/internal/repository/postgres"
	redisrepo "github.com/Rrens/recruit-advisor/internal/repository/redis"
	"github.com/Rrens/recruit-advisor/internal/repository/sqlite"
	"github.com/Rrens/recruit-advisor/internal/search"
	"github.com/Rrens/recruit-advisor/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// SearchCache is a search.Cache that can be flushed by operators
type SearchCache interface {
	search.Cache
	Flush(ctx context.Context) (int64, error)
}

// App holds every long-lived component of a process
type App struct {
	Config    *config.Config
	Store     *repository.Store
	Redis     *redisrepo.Client
	Broker    queue.Broker
	Queue     *queue.Queue
	Locker    lock.Locker
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	LLM       *llm.Router
	Model     llm.Provider
	Cache     SearchCache
	Prompts   *prompt.Assembler
	Analytics *analytics.Tracker

	Chat        *service.ChatService
	Ledger      *service.LedgerService
	ActionItems *service.ActionItemService
	Admin       *service.AdminService

	closers []func() error
}

// New builds the application from configuration
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New(a.Registry)
	}

	switch cfg.Queue.Backend {
	case "redis":
		client, err := redisrepo.NewClient(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
		a.Broker = redisrepo.NewBroker(client, cfg.Queue.ResultTTL)
		a.Locker = redisrepo.NewLocker(client)
		a.Cache = redisrepo.NewSearchCache(client, cfg.Search.CacheTTL)
	case "memory":
		a.Broker = queue.NewMemoryBroker()
		a.Locker = lock.NewMemory()
		a.Cache = search.NewMemoryCache(cfg.Search.CacheTTL)
	default:
		a.Close()
		return nil, &domain.ConfigurationError{Component: "queue", Message: "unknown backend " + cfg.Queue.Backend}
	}
	a.Queue = queue.NewQueue(a.Broker, cfg.Queue.MaxRetries, cfg.Queue.JobTimeout)

	a.LLM = NewLLMRouter(cfg.LLM)
	a.Model, err = a.LLM.Resolve()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Prompts = prompt.NewAssembler(store.Fragments, cfg.Chat)

	a.Analytics = analytics.NewTracker(store.Analytics)

	a.Chat = service.NewChatService(store.Sessions, store.Turns, store.Profiles, a.Prompts, a.Queue, cfg.Chat, a.Analytics)
	a.Ledger = service.NewLedgerService(store.Ledger, store.Turns, a.Queue, a.Analytics)
	a.ActionItems = service.NewActionItemService(store.ActionItems, a.Analytics)
	a.Admin = service.NewAdminService(store.Fragments, store.Settings)

	log.Info().
		Str("store", cfg.Store.Driver).
		Str("queue", cfg.Queue.Backend).
		Str("model_provider", a.Model.Name()).
		Msg("Application initialized")

	return a, nil
}

// NewWorker builds a queue worker with every job handler registered
func (a *App) NewWorker(ctx context.Context) (*queue.Worker, error) {
	cfg := a.Config

	executor, err := search.New(ctx, cfg.Search, search.WithCache(a.Cache), search.WithMetrics(a.Metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create search tool: %w", err)
	}

	temperature := cfg.LLM.Temperature
	orchestrator := agent.NewOrchestrator(a.Model, agent.NewRegistry(executor), agent.Options{
		HistoryTurns: cfg.Chat.HistoryTurns,
		SourcesLimit: cfg.Chat.SourcesLimit,
		Temperature:  &temperature,
		Metrics:      a.Metrics,
	})

	turn := jobs.NewTurnHandler(jobs.TurnDeps{
		Sessions:     a.Store.Sessions,
		Turns:        a.Store.Turns,
		Profiles:     a.Store.Profiles,
		Settings:     a.Store.Settings,
		Prompts:      a.Prompts,
		Runner:       orchestrator,
		Locker:       a.Locker,
		Analytics:    a.Analytics,
		HistoryTurns: cfg.Chat.HistoryTurns,
		LockTTL:      cfg.Queue.SessionLockTTL,
		Metrics:      a.Metrics,
	})
	summary := jobs.NewSummaryHandler(jobs.SummaryDeps{
		Sessions:     a.Store.Sessions,
		Turns:        a.Store.Turns,
		Model:        a.Model,
		Temperature:  &temperature,
		SummaryTurns: cfg.Chat.SummaryTurns,
		TitleMaxLen:  cfg.Chat.TitleMaxLen,
	})
	items := jobs.NewActionItemHandler(jobs.ActionItemDeps{
		Ledger:      a.Store.Ledger,
		ActionItems: a.Store.ActionItems,
		Model:       a.Model,
		Temperature: &temperature,
		Analytics:   a.Analytics,
	})

	worker := queue.NewWorker(a.Broker, queue.WorkerConfig{
		Concurrency:  cfg.Queue.Workers,
		PollTimeout:  cfg.Queue.PollTimeout,
		JobTimeout:   cfg.Queue.JobTimeout,
		RetryBackoff: cfg.Queue.RetryBackoff,
		PromoteEvery: cfg.Queue.PromoteEvery,
		ResultTTL:    cfg.Queue.ResultTTL,
	}, jobs.Classify, a.Metrics)
	jobs.Register(worker, turn, summary, items)

	return worker, nil
}

// Ping checks the store and, when used, Redis
func (a *App) Ping(ctx context.Context) error {
	if err := a.Store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close releases every resource in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLLMRouter registers every provider that has credentials
func NewLLMRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.DefaultProvider)

	if cfg.Gemini.APIKey != "" {
		router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	} else {
		log.Warn().Msg("Gemini API Key is empty, skipping registration")
	}
	if cfg.OpenAI.APIKey != "" {
		router.RegisterProvider(openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL))
	}
	if cfg.Anthropic.APIKey != "" {
		router.RegisterProvider(anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.BaseURL))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.RegisterProvider(deepseek.NewProvider(cfg.DeepSeek))
	}
	if cfg.Ollama.Host != "" {
		log.Info().Str("host", cfg.Ollama.Host).Msg("Registering Ollama provider")
		router.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}

	return router
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
			return nil, err
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db), nil

	case "sqlite":
		if dir := filepath.Dir(cfg.Store.SQLitePath); dir != "." && cfg.Store.SQLitePath != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.SeedFragments(ctx, prompt.DefaultFragments()); err != nil {
			db.Close()
			return nil, err
		}
		return sqlite.NewStore(db), nil

	default:
		return nil, &domain.ConfigurationError{Component: "store", Message: "unknown driver " + cfg.Store.Driver}
	}
}
