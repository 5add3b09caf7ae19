package riskmonitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/risk-monitor/internal/cache"
	"github.com/magabrotheeeer/risk-monitor/internal/config"
	grpchealth "github.com/magabrotheeeer/risk-monitor/internal/grpc/health"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/metrics"
	"github.com/magabrotheeeer/risk-monitor/internal/migrations"
	"github.com/magabrotheeeer/risk-monitor/internal/risk"
	alertservice "github.com/magabrotheeeer/risk-monitor/internal/services/alert"
	riskservice "github.com/magabrotheeeer/risk-monitor/internal/services/risk"
	"github.com/magabrotheeeer/risk-monitor/internal/storage/repository"
)

const (
	migrationsPath  = "./migrations"
	dbStatsInterval = 15 * time.Second
	shutdownTimeout = 15 * time.Second
)

// App представляет HTTP API оценки риска вместе с gRPC-сервером здоровья.
type App struct {
	server  *http.Server
	grpc    *grpchealth.Server
	grpcLis net.Listener
	logger  *slog.Logger
	db      *repository.Storage
	cache   *cache.Cache
	conn    *amqp.Connection
	ch      *amqp.Channel
}

// New подключает хранилище, применяет миграции и собирает сервисы.
// Redis необязателен: без адреса или при ошибке подключения анализ не кэшируется.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	engine, err := risk.New(cfg.EngineConfig())
	if err != nil {
		return nil, err
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, migrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
	}

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

	app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.AlertExchange, rabbitmq.GetAlertQueues())
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	riskService := riskservice.NewRiskService(db, engine, riskCache, cfg.CacheTTL, logger)
	alertService := alertservice.NewAlertService(riskService, app.ch, rabbitmq.AlertExchange, logger)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	router := NewRouter(logger, limiter, Services{
		Risk:   riskService,
		Alerts: alertService,
		Pinger: db,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	app.grpcLis, err = net.Listen("tcp", cfg.AddressGRPC)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to listen gRPC: %w", err)
	}
	app.grpc = grpchealth.New(logger)

	return app, nil
}

// Run запускает HTTP и gRPC серверы и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go metrics.StartDBStatsCollector(ctx, a.db.DB, dbStatsInterval)

	go func() {
		errCh <- a.grpc.Serve(a.grpcLis)
	}()
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	a.logger.Info("shutting down risk monitor gracefully")
	a.grpc.SetServing(false)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	a.grpc.Stop()
	a.close()
	return runErr
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
