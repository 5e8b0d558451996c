package job

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/borrowing"
	borrowingmock "library-backend/internal/domains/borrowing/mock"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"
)

func TestNewSweepOverdueTask(t *testing.T) {
	task, err := NewSweepOverdueTask(shared.SweepOverduePayload{CorrelationID: "abc", RequestedBy: "api"})

	require.NoError(t, err)
	assert.Equal(t, shared.TypeSweepOverdue, task.Type())

	var payload shared.SweepOverduePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "abc", payload.CorrelationID)
	assert.Equal(t, "api", payload.RequestedBy)
}

func TestProcessTask_CarriesCorrelationID(t *testing.T) {
	svc := new(borrowingmock.Service)
	svc.On("SweepOverdue", mock.MatchedBy(func(ctx context.Context) bool {
		return logger.CorrelationID(ctx) == "abc"
	})).Return(4, nil).Once()
	task, err := NewSweepOverdueTask(shared.SweepOverduePayload{CorrelationID: "abc"})
	require.NoError(t, err)

	err = NewSweepOverdueHandler(svc).ProcessTask(context.Background(), task)

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestProcessTask_EmptyPayloadGetsFreshID(t *testing.T) {
	svc := new(borrowingmock.Service)
	svc.On("SweepOverdue", mock.MatchedBy(func(ctx context.Context) bool {
		return logger.CorrelationID(ctx) != ""
	})).Return(0, nil).Once()

	err := NewSweepOverdueHandler(svc).ProcessTask(context.Background(), asynq.NewTask(shared.TypeSweepOverdue, nil))

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestProcessTask_MalformedPayloadSkipsRetry(t *testing.T) {
	svc := new(borrowingmock.Service)

	err := NewSweepOverdueHandler(svc).ProcessTask(context.Background(),
		asynq.NewTask(shared.TypeSweepOverdue, []byte("{not json")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
	svc.AssertNotCalled(t, "SweepOverdue", mock.Anything)
}

func TestProcessTask_StorageErrorIsRetried(t *testing.T) {
	svc := new(borrowingmock.Service)
	cause := errors.Join(borrowing.ErrStorage, errors.New("connection reset"))
	svc.On("SweepOverdue", mock.Anything).Return(0, cause)

	err := NewSweepOverdueHandler(svc).ProcessTask(context.Background(), asynq.NewTask(shared.TypeSweepOverdue, nil))

	assert.ErrorIs(t, err, borrowing.ErrStorage)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
