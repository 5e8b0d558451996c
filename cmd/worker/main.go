package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"library-backend/internal/config"
	"library-backend/pkg/container"
	"library-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize container")
	}
	defer c.Cleanup()

	if err := checkHealth(ctx, c); err != nil {
		log.Error().Err(err).Msg("startup health check failed")
		return
	}

	handlers := initializeHandlers(c)
	srv := setupAsynqServer(c, handlers)
	scheduler, err := setupScheduler(c)
	if err != nil {
		srv.Shutdown()
		log.Error().Err(err).Msg("failed to start scheduler")
		return
	}
	go startHealthCheckServer(cfg.Worker.HealthAddr)

	log.Info().
		Int("concurrency", cfg.Worker.Concurrency).
		Str("sweep_cron", cfg.Job.SweepCron).
		Msg("library worker started")

	<-ctx.Done()

	log.Info().Msg("gracefully stopping worker")
	scheduler.Shutdown()
	srv.Shutdown()
	log.Info().Msg("worker stopped")
}
