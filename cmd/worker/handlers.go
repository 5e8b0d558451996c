package main

import (
	"github.com/hibiken/asynq"

	borrowingJob "library-backend/internal/domains/borrowing/job"
	"library-backend/internal/shared"
	"library-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	sweepOverdue *borrowingJob.SweepOverdueHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		sweepOverdue: borrowingJob.NewSweepOverdueHandler(c.BorrowingService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeSweepOverdue, h.sweepOverdue.ProcessTask)
}
