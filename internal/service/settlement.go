package service

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/config"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"go.uber.org/zap"
)

const (
	defaultDeliveredPercent = 95
	failureReasonDefault    = "undeliverable"
)

// SettlementService resolves every sent recipient of a message to a terminal
// outcome and rolls the aggregate back into the message. Tasks arrive with
// at-least-once semantics, so every step tolerates re-execution.
type SettlementService interface {
	SettleMessage(ctx context.Context, cmd SettleMessageCommand) error
}

type settlement struct {
	messageRepo      repository.MessageRepository
	recipientRepo    repository.RecipientRepository
	taskRepo         repository.SettlementTaskRepository
	txManager        repository.TxManager
	auditor          audit.Emitter
	logger           *zap.Logger
	deliveredPercent int
}

func NewSettlementService(messageRepo repository.MessageRepository, recipientRepo repository.RecipientRepository,
	taskRepo repository.SettlementTaskRepository, txManager repository.TxManager,
	auditor audit.Emitter, cfg *config.Config, logger *zap.Logger) SettlementService {

	percent := defaultDeliveredPercent
	if cfg != nil && cfg.Settlement.DeliveredPercent > 0 && cfg.Settlement.DeliveredPercent <= 100 {
		percent = cfg.Settlement.DeliveredPercent
	}

	return &settlement{
		messageRepo:      messageRepo,
		recipientRepo:    recipientRepo,
		taskRepo:         taskRepo,
		txManager:        txManager,
		auditor:          auditor,
		logger:           logger,
		deliveredPercent: percent,
	}
}

func (s *settlement) SettleMessage(ctx context.Context, cmd SettleMessageCommand) error {
	msg, err := s.messageRepo.GetByID(ctx, cmd.MessageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			s.logger.Warn("Settlement task references missing message",
				zap.String("taskID", cmd.TaskID),
				zap.Int64("messageID", cmd.MessageID))
			return s.finishTask(ctx, cmd.TaskID)
		}

		return mq.Temporary(err)
	}

	if msg.Status.Terminal() {
		// Redelivered task for an already settled message.
		s.logger.Info("Message already settled",
			zap.Int64("messageID", msg.ID),
			zap.String("status", string(msg.Status)))
		return s.finishTask(ctx, cmd.TaskID)
	}

	if msg.Status != model.MessageStatusSent {
		s.logger.Warn("Settlement task for message not yet sent",
			zap.Int64("messageID", msg.ID),
			zap.String("status", string(msg.Status)))
		return nil
	}

	if err := s.resolvePending(ctx, cmd); err != nil {
		return err
	}

	counts, err := s.recipientRepo.CountByStatus(ctx, msg.ID)
	if err != nil {
		return mq.Temporary(err)
	}

	if counts[model.RecipientStatusPending] > 0 || counts[model.RecipientStatusSent] > 0 {
		s.logger.Warn("Recipients still non-terminal after settlement pass",
			zap.Int64("messageID", msg.ID),
			zap.Int("pending", counts[model.RecipientStatusPending]),
			zap.Int("sent", counts[model.RecipientStatusSent]))
		return mq.Temporary(errors.New("settlement incomplete"))
	}

	delivered := counts[model.RecipientStatusDelivered]
	failed := counts[model.RecipientStatusFailed]

	// Aggregate rule: DELIVERED when anything got through, FAILED when
	// nothing did. delivered + failed = total at this point.
	status := model.MessageStatusDelivered
	if delivered == 0 {
		status = model.MessageStatusFailed
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		err := s.messageRepo.UpdateAggregates(ctx, msg.ID, delivered, failed, status, time.Now())
		if err != nil && !errors.Is(err, repository.ErrNoRowsAffected) {
			return err
		}
		// Zero rows means another worker flipped the message first; the
		// task is still ours to finish.
		return s.taskRepo.MarkDone(ctx, cmd.TaskID)
	})
	if err != nil {
		if recordErr := s.taskRepo.RecordError(ctx, cmd.TaskID, err.Error()); recordErr != nil {
			s.logger.Error("Failed to record settlement error",
				zap.String("taskID", cmd.TaskID), zap.Error(recordErr))
		}
		return mq.Temporary(err)
	}

	s.logger.Info("Message settled",
		zap.Int64("messageID", msg.ID),
		zap.String("status", string(status)),
		zap.Int("delivered", delivered),
		zap.Int("failed", failed))

	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.EventMessageSettled,
		AccountID: msg.AccountID,
		MessageID: msg.ID,
		Detail:    string(status),
	})

	return nil
}

// resolvePending walks every recipient still SENT and assigns its terminal
// outcome. Each flip is guarded on the SENT status, so reprocessing a
// redelivered task never double-counts.
func (s *settlement) resolvePending(ctx context.Context, cmd SettleMessageCommand) error {
	recipients, err := s.recipientRepo.ListByMessageIDAndStatus(ctx, cmd.MessageID, model.RecipientStatusSent)
	if err != nil {
		return mq.Temporary(err)
	}

	now := time.Now()
	for _, recipient := range recipients {
		status := model.RecipientStatusDelivered
		var reason *string
		if !s.oracleDelivers(cmd.MessageID, recipient.ID) {
			status = model.RecipientStatusFailed
			r := failureReasonDefault
			reason = &r
		}

		err := s.recipientRepo.MarkTerminal(ctx, recipient.ID, status, reason, now)
		if err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				// Already terminal from an earlier run.
				continue
			}

			if recordErr := s.taskRepo.RecordError(ctx, cmd.TaskID, err.Error()); recordErr != nil {
				s.logger.Error("Failed to record settlement error",
					zap.String("taskID", cmd.TaskID), zap.Error(recordErr))
			}
			return mq.Temporary(err)
		}
	}

	return nil
}

// oracleDelivers stands in for the carrier delivery receipt. Hashing the
// message and recipient ids spreads failures across a batch instead of
// clustering them on contiguous ids, and a redelivered task still reaches
// the same verdict.
func (s *settlement) oracleDelivers(messageID, recipientID int64) bool {
	var key [16]byte
	binary.BigEndian.PutUint64(key[:8], uint64(messageID))
	binary.BigEndian.PutUint64(key[8:], uint64(recipientID))

	h := fnv.New32a()
	h.Write(key[:])

	return h.Sum32()%100 < uint32(s.deliveredPercent)
}

func (s *settlement) finishTask(ctx context.Context, taskID string) error {
	err := s.taskRepo.MarkDone(ctx, taskID)
	if err != nil && !errors.Is(err, repository.ErrTaskNotFound) {
		return mq.Temporary(err)
	}

	return nil
}
