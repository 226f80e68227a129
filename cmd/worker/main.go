package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/recruit-advisor/internal/app"
	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := logging.Setup(cfg.Logging, cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if cfg.Queue.Backend != "redis" {
		log.Fatal().Str("backend", cfg.Queue.Backend).Msg("A standalone worker needs the redis queue backend")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	worker, err := application.NewWorker(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker")
	}

	log.Info().Int("workers", cfg.Queue.Workers).Msg("Starting job worker")
	if err := worker.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Worker failed")
	}
	log.Info().Msg("Worker stopped")
}
