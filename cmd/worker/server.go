package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-backend/internal/shared"
	"library-backend/pkg/container"
	"library-backend/pkg/logger"
)

// asynqServer wraps asynq.Server with startup and shutdown logging.
type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		c.RedisOpt(),
		asynq.Config{
			Queues:          shared.QueueWeights,
			Concurrency:     c.Config.Worker.Concurrency,
			ShutdownTimeout: c.Config.Worker.ShutdownTimeout,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.FromContext(ctx).Error().
					Err(err).
					Str("task", task.Type()).
					Msg("task failed")
			}),
		},
	)

	go func() {
		log.Info().Msg("asynq server starting")
		if err := srv.Run(mux); err != nil {
			log.Error().Err(err).Msg("asynq server stopped with error")
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits up to the configured ShutdownTimeout for active tasks.
func (s *asynqServer) Shutdown() {
	s.Server.Shutdown()
	log.Info().Msg("asynq server stopped")
}
