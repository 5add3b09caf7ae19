// Package notifier содержит приложение, которое читает очереди алертов и рассылает письма команде риска.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/risk-monitor/internal/config"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/risk-monitor/internal/services/notifier"
)

// ErrNoRecipients возвращается, если в конфиге не указан ни один получатель.
var ErrNoRecipients = errors.New("notifier: no recipients configured")

// App представляет приложение рассылки.
type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	notifierService *notifierservice.NotifierService
	queues          []string
	logger          *slog.Logger
}

// New подключается к брокеру и готовит сервис рассылки.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if len(cfg.Recipients) == 0 {
		return nil, ErrNoRecipients
	}
	queues, err := queueNames(cfg.Levels)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.AlertExchange, rabbitmq.GetAlertQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:            conn,
		ch:              ch,
		notifierService: notifierservice.NewNotifierService(transport, cfg.Recipients, logger),
		queues:          queues,
		logger:          logger,
	}, nil
}

// queueNames переводит уровни риска из конфига в имена очередей.
func queueNames(levels []string) ([]string, error) {
	known := make(map[string]bool)
	for _, q := range rabbitmq.GetAlertQueues() {
		known[q.RoutingKey] = true
	}

	names := make([]string, 0, len(levels))
	for _, level := range levels {
		if !known[level] {
			return nil, fmt.Errorf("notifier: unknown risk level %q", level)
		}
		names = append(names, rabbitmq.AlertQueueName(level))
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("notifier: no risk levels configured")
	}
	return names, nil
}

// Run запускает потребителей всех очередей и блокируется до отмены ctx.
// Перед закрытием канала дожидается обработчиков, уже взявших сообщения.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var inFlight sync.WaitGroup
	var runErr error
	for _, queue := range a.queues {
		err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, a.notifierService.HandleAlert, &inFlight, a.logger)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
			runErr = err
			cancel()
			break
		}
		a.logger.Info("consuming risk alerts", slog.String("queue", queue))
	}

	<-ctx.Done()
	a.logger.Info("notifier service shutting down gracefully")
	inFlight.Wait()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return runErr
}
