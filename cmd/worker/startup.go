package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/pkg/container"
)

// checkHealth verifies the stores the worker depends on before it takes tasks.
func checkHealth(ctx context.Context, c *container.Container) error {
	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"postgres", c.DB.HealthCheck},
		{"reports", c.Reports.PingContext},
		{"redis", func(ctx context.Context) error {
			return pingRedis(ctx, c)
		}},
	}

	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := check.fn(checkCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", check.name, err)
		}
		log.Info().Str("check", check.name).Msg("health check passed")
	}
	return nil
}

// pingRedis checks the broker, which is required even when caching is off.
func pingRedis(ctx context.Context, c *container.Container) error {
	redisCfg := c.Config.Redis
	rc := infraCache.NewRedisClient(redisCfg.Host, redisCfg.Password, redisCfg.DB)
	defer rc.Close()
	return rc.HealthCheck(ctx)
}

func startHealthCheckServer(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"UP","service":"library-worker"}`))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"READY"}`))
	})

	log.Info().Str("addr", addr).Msg("health check server starting")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn().Err(err).Msg("health check server stopped")
	}
}
