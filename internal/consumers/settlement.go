package consumers

import (
	"context"
	"encoding/json"

	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"go.uber.org/zap"
)

const SettlementQueue = "settlement.resolve"

type SettlementConsumer interface {
	Consume(ctx context.Context) error
}

type settlementConsumer struct {
	service  service.SettlementService
	consumer mq.Consumer
	logger   *zap.Logger
}

func NewSettlementConsumer(svc service.SettlementService, consumer mq.Consumer,
	logger *zap.Logger) SettlementConsumer {
	return &settlementConsumer{service: svc, consumer: consumer, logger: logger}
}

func (s *settlementConsumer) Consume(ctx context.Context) error {
	return s.consumer.Consume(ctx, 1, SettlementQueue, s.handleTask)
}

func (s *settlementConsumer) handleTask(ctx context.Context, body []byte) error {
	s.logger.Debug("received settlement task", zap.ByteString("body", body))

	var cmd service.SettleMessageCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		// Malformed payloads are dropped, requeueing cannot fix them.
		s.logger.Warn("invalid settlement task", zap.Error(err))
		return err
	}

	return s.service.SettleMessage(ctx, cmd)
}
