// Package scheduler содержит приложение периодической рассылки алертов по критическому риску.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/risk-monitor/internal/cache"
	"github.com/magabrotheeeer/risk-monitor/internal/config"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/risk"
	alertservice "github.com/magabrotheeeer/risk-monitor/internal/services/alert"
	riskservice "github.com/magabrotheeeer/risk-monitor/internal/services/risk"
	schedulerservice "github.com/magabrotheeeer/risk-monitor/internal/services/scheduler"
	"github.com/magabrotheeeer/risk-monitor/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	interval         time.Duration
	db               *repository.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// waitForDB ждёт, пока основной сервис применит миграции.
func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	engine, err := risk.New(cfg.EngineConfig())
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.AlertExchange, rabbitmq.GetAlertQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err = waitForDB(ctx, db); err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	app := &App{
		interval: cfg.SchedulerInterval,
		db:       db,
		conn:     conn,
		ch:       ch,
		logger:   logger,
	}

	// кэш общий с API
	var riskCache riskservice.Cache
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("cache not initialized, continuing without it", sl.Err(err))
		} else {
			app.cache = cacheRedis
			riskCache = cacheRedis
		}
	}

	riskService := riskservice.NewRiskService(db, engine, riskCache, cfg.CacheTTL, logger)
	alertService := alertservice.NewAlertService(riskService, ch, rabbitmq.AlertExchange, logger)
	app.schedulerService = schedulerservice.NewSchedulerService(
		riskService,
		alertService,
		engine.Config().Thresholds.Critical,
		cfg.AlertLimit,
		logger,
	)

	return app, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx, a.interval)

	a.logger.Info("shutting down scheduler service")

	closeResources(a.ch, a.conn, a.logger)
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
