package main

import (
	"context"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/cache"
	"github.com/abenikeb/biisho-a2p/internal/config"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/abenikeb/biisho-a2p/pkg/contacts"
	"github.com/abenikeb/biisho-a2p/pkg/httpclient"
	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"github.com/abenikeb/biisho-a2p/pkg/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
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
			NewMQPublisher,
			NewSettingsCache,
			NewContactsClient,
			NewAuditEmitter,

			repository.NewMessageRepository,
			repository.NewRecipientRepository,
			repository.NewCreditLedgerRepository,
			repository.NewLedgerEntryRepository,
			repository.NewSettlementTaskRepository,
			repository.NewSenderIdentityRepository,
			repository.NewSettingRepository,
			repository.NewTransactionManager,

			service.NewRecipientResolver,
			service.NewSettingsService,
			service.NewDispatchService,
		),
		fx.Invoke(runScheduler),
	).Run()
}

func runScheduler(cfg *config.Config, dispatch service.DispatchService, logger *zap.Logger,
	rabbit *mq.RabbitMQ, lc fx.Lifecycle) {
	appCtx, cancel := context.WithCancel(context.Background())

	spec := cfg.Scheduler.Spec
	if spec == "" {
		spec = "@every 1m"
	}

	batchSize := cfg.Scheduler.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	c := cron.New()

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology([]string{audit.Queue}); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}

			_, err := c.AddFunc(spec, func() {
				dispatched, err := dispatch.DispatchDue(appCtx, batchSize)
				if err != nil {
					logger.Error("failed to dispatch due messages", zap.Error(err))
					return
				}
				if dispatched > 0 {
					logger.Info("dispatched scheduled messages", zap.Int("count", dispatched))
				}
			})
			if err != nil {
				return err
			}

			c.Start()
			logger.Info("scheduler started", zap.String("spec", spec))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping scheduler")
			cancel()
			<-c.Stop().Done()
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

func NewMQPublisher(rabbitMQ *mq.RabbitMQ) (mq.Publisher, error) {
	return rabbitMQ.CreatePublisher()
}

func NewSettingsCache(cfg *config.Config) cache.SettingsCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	ttl := cfg.Redis.SettingTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return cache.NewRedisCache(rdb, ttl)
}

func NewContactsClient(cfg *config.Config) contacts.Client {
	client := httpclient.NewHTTPClient(cfg.Contacts.Timeout)
	return contacts.NewClient(cfg.Contacts, client)
}

func NewAuditEmitter(publisher mq.Publisher, logger *zap.Logger) audit.Emitter {
	return audit.NewQueueEmitter(publisher, logger)
}
