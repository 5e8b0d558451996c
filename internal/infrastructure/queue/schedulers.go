package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-backend/internal/config"
	"library-backend/internal/domains/borrowing/job"
	"library-backend/internal/shared"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redis asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redis,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs registers every periodic task. It returns the asynq entry ids.
func (s *Scheduler) RegisterJobs() ([]string, error) {
	id, err := s.registerSweepOverdueJob()
	if err != nil {
		return nil, err
	}
	return []string{id}, nil
}

// ================================================
// JOB: Sweep Overdue Borrowings (JOB_SWEEP_CRON, default 00:05 UTC)
// ================================================
func (s *Scheduler) registerSweepOverdueJob() (string, error) {
	task, err := job.NewSweepOverdueTask(shared.SweepOverduePayload{RequestedBy: "scheduler"})
	if err != nil {
		return "", err
	}

	entryID, err := s.scheduler.Register(s.jobConfig.SweepCron, task)
	if err != nil {
		return "", fmt.Errorf("register sweep job %q: %w", s.jobConfig.SweepCron, err)
	}

	log.Info().
		Str("entry_id", entryID).
		Str("cron", s.jobConfig.SweepCron).
		Str("task", shared.TypeSweepOverdue).
		Msg("registered overdue sweep")
	return entryID, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
