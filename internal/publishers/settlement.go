package publishers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"go.uber.org/zap"
)

const settlementQueue = "settlement.resolve"

// SettlementPublisher ships pending settlement tasks from the outbox table to
// the queue, and re-ships tasks that were published but never finished within
// the stale window. Both paths make the queue delivery at-least-once.
type SettlementPublisher interface {
	Publish(ctx context.Context) error
}

type settlementPublisher struct {
	taskRepo   repository.SettlementTaskRepository
	publisher  mq.Publisher
	logger     *zap.Logger
	batchSize  int
	staleAfter time.Duration
}

func NewSettlementPublisher(taskRepo repository.SettlementTaskRepository, publisher mq.Publisher,
	batchSize int, staleAfter time.Duration, logger *zap.Logger) SettlementPublisher {
	if batchSize <= 0 {
		batchSize = 100
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}

	return &settlementPublisher{
		taskRepo:   taskRepo,
		publisher:  publisher,
		logger:     logger,
		batchSize:  batchSize,
		staleAfter: staleAfter,
	}
}

func (s *settlementPublisher) Publish(ctx context.Context) error {
	pending, err := s.taskRepo.FindPending(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to find pending settlement tasks", zap.Error(err))
		return err
	}

	stale, err := s.taskRepo.FindStalePublished(ctx, time.Now().Add(-s.staleAfter), s.batchSize)
	if err != nil {
		s.logger.Error("Failed to find stale settlement tasks", zap.Error(err))
		return err
	}

	tasks := append(pending, stale...)
	if len(tasks) == 0 {
		return nil
	}

	s.logger.Info("Publishing settlement tasks",
		zap.Int("pending", len(pending)),
		zap.Int("stale", len(stale)))

	published := 0
	for _, task := range tasks {
		if err := s.publishTask(ctx, task); err != nil {
			s.logger.Error("Failed to publish settlement task",
				zap.Error(err),
				zap.String("taskID", task.ID),
				zap.Int64("messageID", task.MessageID))
			continue
		}

		if err := s.taskRepo.MarkPublished(ctx, task.ID, time.Now()); err != nil {
			s.logger.Error("Failed to mark settlement task published",
				zap.Error(err),
				zap.String("taskID", task.ID))
			continue
		}

		published++
	}

	if published > 0 {
		s.logger.Info("Settlement tasks published",
			zap.Int("published", published),
			zap.Int("total", len(tasks)))
	}

	return nil
}

func (s *settlementPublisher) publishTask(ctx context.Context, task model.SettlementTask) error {
	cmd := service.SettleMessageCommand{TaskID: task.ID, MessageID: task.MessageID}

	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	return s.publisher.Publish(ctx, "", settlementQueue, body)
}
