package main

import (
	"context"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/config"
	"github.com/abenikeb/biisho-a2p/internal/publishers"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"github.com/abenikeb/biisho-a2p/pkg/mysql"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const settlementQueue = "settlement.resolve"

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,
			NewConnectionDB,
			NewMQConnection,
			NewMQPublisher,

			repository.NewSettlementTaskRepository,

			NewSettlementPublisher,
		),
		fx.Invoke(runSettlementPublisher),
	).Run()
}

func runSettlementPublisher(cfg *config.Config, publisher publishers.SettlementPublisher,
	logger *zap.Logger, rabbit *mq.RabbitMQ, lc fx.Lifecycle) {
	appCtx, cancel := context.WithCancel(context.Background())

	interval := cfg.Settlement.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology([]string{settlementQueue}); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}

			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						if err := publisher.Publish(appCtx); err != nil {
							logger.Error("failed to publish settlement tasks", zap.Error(err))
						}
					case <-appCtx.Done():
						logger.Info("publisher context cancelled")
						return
					}
				}
			}()

			logger.Info("settlement publisher started", zap.Duration("interval", interval))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping settlement publisher")
			cancel()
			return rabbit.Close()
		},
	})
}

func NewSettlementPublisher(taskRepo repository.SettlementTaskRepository, publisher mq.Publisher,
	cfg *config.Config, logger *zap.Logger) publishers.SettlementPublisher {
	return publishers.NewSettlementPublisher(taskRepo, publisher,
		cfg.Settlement.BatchSize, cfg.Settlement.StaleAfter, logger)
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return mysql.NewConnection(context.Background(), cfg.Database, logger)
}

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.RabbitMQ, error) {
	return mq.NewConnection(cfg.RabbitMQ, logger)
}

func NewMQPublisher(rabbitMQ *mq.RabbitMQ) (mq.Publisher, error) {
	return rabbitMQ.CreatePublisher()
}
