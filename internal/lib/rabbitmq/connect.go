// Package rabbitmq подключается к брокеру, объявляет топологию уведомлений,
// публикует и потребляет сообщения.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/streadway/amqp"
)

// ErrConnectionClosed соединение с брокером закрыто.
var ErrConnectionClosed = errors.New("rabbitmq connection closed")

// Connect подключается к брокеру, повторяя попытки attempts раз с паузой delay.
func Connect(ctx context.Context, url string, attempts int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	if attempts < 1 {
		attempts = 1
	}

	var (
		conn    *amqp.Connection
		lastErr error
	)
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			c, err := amqp.Dial(url)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		NotifyFunc: func(err error, _ int) {
			lastErr = err
		},
		Attempts: attempts,
		Delay:    delay,
		Clock:    clock.WallClock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		if lastErr != nil {
			return nil, fmt.Errorf("%s: %w", op, lastErr)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return conn, nil
}

// Health проверка соединения с брокером для health-эндпоинтов.
type Health struct {
	conn *amqp.Connection
}

// NewHealth оборачивает соединение.
func NewHealth(conn *amqp.Connection) *Health {
	return &Health{conn: conn}
}

// Ping возвращает ошибку, если соединение закрыто.
func (h *Health) Ping(_ context.Context) error {
	if h.conn == nil || h.conn.IsClosed() {
		return ErrConnectionClosed
	}
	return nil
}
