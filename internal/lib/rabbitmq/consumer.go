package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
)

// maxInFlight ограничивает число одновременно обрабатываемых сообщений очереди.
const maxInFlight = 10

// ErrMalformed помечает сообщение, которое нельзя обработать повторно.
// Такие сообщения отклоняются без возврата в очередь.
var ErrMalformed = errors.New("malformed message")

// Consumer — часть *amqp.Channel, нужная для чтения очереди.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ConsumerMessage читает queueName в фоне до отмены ctx или закрытия канала.
// Успешно обработанное сообщение подтверждается, при ошибке handler возвращается
// в очередь, а при ErrMalformed отбрасывается.
// Чтение очереди и каждый обработчик учитываются в wg: после wg.Wait канал можно закрывать.
func ConsumerMessage(ctx context.Context, ch Consumer, queueName string, handler func([]byte) error, wg *sync.WaitGroup, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(sl.Op(op), slog.String("queue", queueName))
	sem := make(chan struct{}, maxInFlight)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer func() {
						<-sem
						wg.Done()
					}()
					handle(d, handler, log)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func handle(d amqp.Delivery, handler func([]byte) error, log *slog.Logger) {
	err := handler(d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrMalformed):
		log.Warn("dropping malformed message", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	default:
		log.Error("failed to handle message, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
