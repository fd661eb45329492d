package main

import (
	"context"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/api"
	"github.com/abenikeb/biisho-a2p/internal/api/middleware"
	v1 "github.com/abenikeb/biisho-a2p/internal/api/v1"
	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/cache"
	"github.com/abenikeb/biisho-a2p/internal/config"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/abenikeb/biisho-a2p/pkg/contacts"
	"github.com/abenikeb/biisho-a2p/pkg/httpclient"
	"github.com/abenikeb/biisho-a2p/pkg/mq"
	"github.com/abenikeb/biisho-a2p/pkg/mysql"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
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
			NewFiberApp,
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
			service.NewMessageService,
			service.NewLedgerService,
			service.NewDispatchService,

			v1.NewHandler,
		),
		fx.Invoke(startServer),
	).Run()
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, logger *zap.Logger,
	rabbit *mq.RabbitMQ, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology([]string{audit.Queue}); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}

			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Error("server exited", zap.Error(err))
				}
			}()

			logger.Info("api started", zap.String("port", cfg.API.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := app.ShutdownWithContext(ctx); err != nil {
				return err
			}
			return rabbit.Close()
		},
	})
}

func NewFiberApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
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
