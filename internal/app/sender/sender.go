// Package sender содержит процесс доставки уведомлений по электронной почте.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	senderservice "github.com/magabrotheeeer/tracker-saas/internal/services/sender"
)

// App потребитель очереди e-mail уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	workers       int
	requeueDelay  time.Duration
	logger        *slog.Logger
}

// New подключается к брокеру и готовит SMTP-отправителя.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	senderService := senderservice.NewSenderService(senderservice.NewDialer(cfg.SMTP), cfg.SMTPFrom,
		metrics.New(prometheus.DefaultRegisterer), logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		workers:       cfg.SMTP.Workers,
		requeueDelay:  cfg.SMTP.RequeueDelay,
		logger:        logger,
	}, nil
}

// Run обрабатывает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.EmailQueue, a.workers, a.requeueDelay,
		a.senderService.HandleMessage)
	if err != nil {
		a.logger.Error("email consumer stopped", slog.String("queue", rabbitmq.EmailQueue), sl.Err(err))
	}

	a.logger.Info("Sender service shutting down gracefully")

	if cerr := a.ch.Close(); cerr != nil {
		a.logger.Error("failed to close channel", sl.Err(cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.logger.Error("failed to close connection", sl.Err(cerr))
	}

	return err
}
