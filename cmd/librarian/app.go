package main

import (
	"context"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"library-backend/internal/config"
	"library-backend/internal/domains/borrowing"
	borrowingService "library-backend/internal/domains/borrowing/service"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/pkg/cache"
	"library-backend/pkg/container"
	"library-backend/pkg/logger"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

// commandContext tags a command's context with a fresh correlation id so
// every log line of one invocation can be grouped.
func commandContext(ctx context.Context) context.Context {
	return logger.WithCorrelationID(ctx, logger.NewCorrelationID())
}

// openContainer connects to postgres. The queue client is never needed
// here; sweeps run inline.
func openContainer(ctx context.Context, cfg *config.Config) (*container.Container, error) {
	local := *cfg
	local.Worker.Enabled = false
	return container.NewContainer(ctx, &local)
}

// memoryLibrary is an in-process library with no external stores.
type memoryLibrary struct {
	store   *memstore.Store
	engine  *borrowingService.Engine
	service borrowing.Service
}

func newMemoryLibrary(lib config.LibraryConfig) *memoryLibrary {
	store := memstore.New()
	engine := borrowingService.NewEngine(store,
		borrowingService.WithCeiling(lib.Ceiling),
		borrowingService.WithFineRate(lib.FineRate),
	)
	return &memoryLibrary{
		store:  store,
		engine: engine,
		service: borrowingService.NewBorrowingService(engine, store, cache.Noop{},
			borrowingService.WithSweepBatch(lib.SweepBatch)),
	}
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(out, '\n'))
	return err
}

func closeContainer(c *container.Container) {
	c.Cleanup()
	log.Debug().Msg("librarian finished")
}
