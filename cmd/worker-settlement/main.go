package main

import (
	"context"

	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/config"
	"github.com/abenikeb/biisho-a2p/internal/consumers"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"github.com/abenikeb/biisho-a2p/pkg/mysql"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,
			NewConnectionDB,
			NewMQConnection,
			NewMQConsumer,
			NewMQPublisher,
			NewAuditEmitter,

			repository.NewMessageRepository,
			repository.NewRecipientRepository,
			repository.NewSettlementTaskRepository,
			repository.NewTransactionManager,

			service.NewSettlementService,

			consumers.NewSettlementConsumer,
		),
		fx.Invoke(runSettlementConsumer),
	).Run()
}

func runSettlementConsumer(cfg *config.Config, consumer consumers.SettlementConsumer,
	logger *zap.Logger, rabbit *mq.RabbitMQ, lc fx.Lifecycle) {
	appCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology([]string{consumers.SettlementQueue, audit.Queue}); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}

			go func() {
				if err := consumer.Consume(appCtx); err != nil {
					logger.Error("consumer exited", zap.Error(err))
				}
			}()

			logger.Info("settlement consumer started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping settlement consumer")
			cancel()
			return rabbit.Close()
		},
	})
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return mysql.NewConnection(context.Background(), cfg.Database, logger)
}

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.RabbitMQ, error) {
	return mq.NewConnection(cfg.RabbitMQ, logger)
}

func NewMQConsumer(rabbitMQ *mq.RabbitMQ) (mq.Consumer, error) {
	return rabbitMQ.CreateConsumer()
}

func NewMQPublisher(rabbitMQ *mq.RabbitMQ) (mq.Publisher, error) {
	return rabbitMQ.CreatePublisher()
}

func NewAuditEmitter(publisher mq.Publisher, logger *zap.Logger) audit.Emitter {
	return audit.NewQueueEmitter(publisher, logger)
}
