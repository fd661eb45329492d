package publishers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/mocks"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/publishers"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestSettlementPublisher_Publish(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("publishes pending tasks and marks them", func(t *testing.T) {
		mockTaskRepo := &mocks.SettlementTaskRepository{}
		mockPublisher := &mocks.Publisher{}

		pub := publishers.NewSettlementPublisher(mockTaskRepo, mockPublisher, 100, 10*time.Minute, logger)

		tasks := []model.SettlementTask{
			{ID: "task-1", MessageID: 42, State: model.SettlementTaskStatePending},
		}

		mockTaskRepo.On("FindPending", ctx, 100).Return(tasks, nil)
		mockTaskRepo.On("FindStalePublished", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]model.SettlementTask{}, nil)

		mockPublisher.On("Publish", ctx, "", "settlement.resolve",
			mock.MatchedBy(func(body []byte) bool {
				var cmd service.SettleMessageCommand
				if err := json.Unmarshal(body, &cmd); err != nil {
					return false
				}
				return cmd.TaskID == "task-1" && cmd.MessageID == 42
			})).Return(nil)

		mockTaskRepo.On("MarkPublished", ctx, "task-1", mock.AnythingOfType("time.Time")).Return(nil)

		err := pub.Publish(ctx)

		assert.NoError(t, err)
		mockTaskRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("re-ships stale published tasks", func(t *testing.T) {
		mockTaskRepo := &mocks.SettlementTaskRepository{}
		mockPublisher := &mocks.Publisher{}

		pub := publishers.NewSettlementPublisher(mockTaskRepo, mockPublisher, 100, 10*time.Minute, logger)

		stale := []model.SettlementTask{
			{ID: "task-2", MessageID: 43, State: model.SettlementTaskStatePublished},
		}

		mockTaskRepo.On("FindPending", ctx, 100).Return([]model.SettlementTask{}, nil)
		mockTaskRepo.On("FindStalePublished", ctx, mock.AnythingOfType("time.Time"), 100).Return(stale, nil)
		mockPublisher.On("Publish", ctx, "", "settlement.resolve", mock.AnythingOfType("[]uint8")).Return(nil)
		mockTaskRepo.On("MarkPublished", ctx, "task-2", mock.AnythingOfType("time.Time")).Return(nil)

		err := pub.Publish(ctx)

		assert.NoError(t, err)
		mockTaskRepo.AssertExpectations(t)
	})

	t.Run("failed publish leaves the task pending", func(t *testing.T) {
		mockTaskRepo := &mocks.SettlementTaskRepository{}
		mockPublisher := &mocks.Publisher{}

		pub := publishers.NewSettlementPublisher(mockTaskRepo, mockPublisher, 100, 10*time.Minute, logger)

		tasks := []model.SettlementTask{
			{ID: "task-1", MessageID: 42, State: model.SettlementTaskStatePending},
		}

		mockTaskRepo.On("FindPending", ctx, 100).Return(tasks, nil)
		mockTaskRepo.On("FindStalePublished", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]model.SettlementTask{}, nil)
		mockPublisher.On("Publish", ctx, "", "settlement.resolve", mock.AnythingOfType("[]uint8")).
			Return(errors.New("broker down"))

		err := pub.Publish(ctx)

		assert.NoError(t, err)
		mockTaskRepo.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nothing to publish is a no-op", func(t *testing.T) {
		mockTaskRepo := &mocks.SettlementTaskRepository{}
		mockPublisher := &mocks.Publisher{}

		pub := publishers.NewSettlementPublisher(mockTaskRepo, mockPublisher, 100, 10*time.Minute, logger)

		mockTaskRepo.On("FindPending", ctx, 100).Return([]model.SettlementTask{}, nil)
		mockTaskRepo.On("FindStalePublished", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]model.SettlementTask{}, nil)

		err := pub.Publish(ctx)

		assert.NoError(t, err)
		mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
