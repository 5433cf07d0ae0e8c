package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
)

// ErrDrop сообщает потребителю, что сообщение нужно подтвердить без повторной доставки.
var ErrDrop = errors.New("drop message")

// ConsumerMessage читает очередь queueName и обрабатывает не более workers сообщений
// одновременно. Успешная обработка и ErrDrop подтверждают сообщение, любая другая
// ошибка возвращает его в очередь через requeueDelay; всё это время воркер занят.
// Блокируется до отмены ctx или закрытия канала.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, workers int,
	requeueDelay time.Duration, handler func(context.Context, []byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	if workers < 1 {
		workers = 1
	}

	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, workers)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return nil
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handleDelivery(ctx, log, clock.WallClock, d, requeueDelay, handler)
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}

func handleDelivery(ctx context.Context, log *slog.Logger, clk clock.Clock, d amqp.Delivery, requeueDelay time.Duration,
	handler func(context.Context, []byte) error) {
	err := handler(ctx, d.Body)
	if err == nil || errors.Is(err, ErrDrop) {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}

	log.Warn("message handling failed, requeueing", slog.Duration("delay", requeueDelay), sl.Err(err))
	if requeueDelay > 0 {
		select {
		case <-clk.After(requeueDelay):
		case <-ctx.Done():
		}
	}
	if nackErr := d.Nack(false, true); nackErr != nil {
		log.Error("failed to nack message", sl.Err(nackErr))
	}
}
