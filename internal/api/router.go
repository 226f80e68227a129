package api

import (
	"net/http"

	"github.com/Rrens/recruit-advisor/internal/api/handler"
	customMiddleware "github.com/Rrens/recruit-advisor/internal/api/middleware"
	"github.com/Rrens/recruit-advisor/internal/app"
	"github.com/Rrens/recruit-advisor/internal/repository/redis"
	"github.com/Rrens/recruit-advisor/internal/security"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures the HTTP router
func NewRouter(a *app.App) http.Handler {
	cfg := a.Config
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	var limiter customMiddleware.Limiter
	if a.Redis != nil {
		limiter = redis.NewRateLimiter(a.Redis, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	} else {
		limiter = customMiddleware.NewMemoryLimiter(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	}

	// Initialize handlers
	chatHandler := handler.NewChatHandler(a.Chat)
	sessionHandler := handler.NewSessionHandler(a.Chat)
	suggestionHandler := handler.NewSuggestionHandler(a.Chat)
	analyticsHandler := handler.NewAnalyticsHandler(a.Chat)
	ledgerHandler := handler.NewLedgerHandler(a.Ledger)
	actionItemHandler := handler.NewActionItemHandler(a.ActionItems)
	adminHandler := handler.NewAdminHandler(a.Admin)

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(limiter)

	readiness := map[string]handler.Pinger{"store": a.Store.Ping}
	if a.Redis != nil {
		readiness["redis"] = a.Redis.Ping
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(readiness))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/llm-providers", handler.ListLLMProviders(a.LLM))

			r.Route("/chat", func(r chi.Router) {
				r.Post("/turns", chatHandler.SubmitTurn)
				r.Get("/tasks/{taskID}", chatHandler.PollTask)
				r.Post("/welcome", chatHandler.Welcome)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Post("/", sessionHandler.Create)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", sessionHandler.GetHistory)
					r.Delete("/", sessionHandler.Delete)
					r.Post("/summary", sessionHandler.TriggerSummary)
				})
			})

			r.Get("/suggestions", suggestionHandler.GetSuggestions)
			r.Get("/analytics", analyticsHandler.Get)

			r.Route("/ledger", func(r chi.Router) {
				r.Get("/", ledgerHandler.List)
				r.Post("/", ledgerHandler.Create)

				r.Route("/{entryID}", func(r chi.Router) {
					r.Get("/", ledgerHandler.Get)
					r.Delete("/", ledgerHandler.Archive)
					r.Post("/action-items", ledgerHandler.GenerateActionItems)
				})
			})

			r.Route("/action-items", func(r chi.Router) {
				r.Get("/", actionItemHandler.List)
				r.Patch("/{itemID}", actionItemHandler.Update)
				r.Delete("/{itemID}", actionItemHandler.Archive)
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(customMiddleware.RequireAdmin)

				r.Post("/cache/flush", handler.FlushCache(a.Cache))

				r.Get("/prompts", adminHandler.ListPrompts)
				r.Put("/prompts", adminHandler.UpsertPrompt)
				r.Patch("/prompts/{name}", adminHandler.SetPromptActive)

				r.Get("/settings/{userID}", adminHandler.GetSetting)
				r.Put("/settings/{userID}", adminHandler.PutSetting)
			})
		})
	})

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	}

	return r
}
