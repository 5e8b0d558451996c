package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"library-backend/internal/domains/borrowing"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const sweepTimeout = 5 * time.Minute

// NewSweepOverdueTask builds the task enqueued by the API and the scheduler.
func NewSweepOverdueTask(payload shared.SweepOverduePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal sweep payload: %w", err)
	}
	return asynq.NewTask(shared.TypeSweepOverdue, body,
		asynq.Queue(shared.QueueBorrowing),
		asynq.MaxRetry(3),
		asynq.Timeout(sweepTimeout),
	), nil
}

type SweepOverdueHandler struct {
	service borrowing.Service
}

func NewSweepOverdueHandler(svc borrowing.Service) *SweepOverdueHandler {
	return &SweepOverdueHandler{service: svc}
}

// ProcessTask flags overdue borrowings. A malformed payload is not retried.
func (h *SweepOverdueHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.SweepOverduePayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.FromContext(ctx).Error().Err(err).Msg("sweep payload rejected")
			return fmt.Errorf("unmarshal sweep payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	id := payload.CorrelationID
	if id == "" {
		id = logger.NewCorrelationID()
	}
	ctx = logger.WithCorrelationID(ctx, id)

	logger.FromContext(ctx).Info().
		Str("requested_by", payload.RequestedBy).
		Msg("overdue sweep started")

	flagged, err := h.service.SweepOverdue(ctx)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info().Int("flagged", flagged).Msg("overdue sweep task done")
	return nil
}

// Enqueuer hands sweeps to the worker.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueSweep returns the asynq task id.
func (e *Enqueuer) EnqueueSweep(ctx context.Context, requestedBy string) (string, error) {
	task, err := NewSweepOverdueTask(shared.SweepOverduePayload{
		CorrelationID: logger.CorrelationID(ctx),
		RequestedBy:   requestedBy,
	})
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue sweep: %w", err)
	}
	logger.FromContext(ctx).Info().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("overdue sweep enqueued")
	return info.ID, nil
}
