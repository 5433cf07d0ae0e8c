// Package sweeper содержит процесс ежедневной проверки истекающих подписок.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/tracker-saas/internal/cache"
	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	"github.com/magabrotheeeer/tracker-saas/internal/services/notification"
	sweeperservice "github.com/magabrotheeeer/tracker-saas/internal/services/sweeper"
	"github.com/magabrotheeeer/tracker-saas/internal/storage/repository"
)

// App представляет приложение sweeper.
type App struct {
	sweeper *sweeperservice.Sweeper
	runOnce bool
	db      *repository.Storage
	cache   *cache.Cache
	conn    *amqp.Connection
	ch      *amqp.Channel
	logger  *slog.Logger
}

// New создает новый экземпляр приложения sweeper.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	hour, minute, err := cfg.RunAtClock()
	if err != nil {
		return nil, err
	}

	app := &App{runOnce: cfg.RunOnce, logger: logger}

	app.db, err = repository.Connect(ctx, cfg.StorageConnectionString, cfg.StorageConnectAttempts, cfg.StorageConnectDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	notifications := notification.NewNotificationService(app.db, rabbitmq.NewPublisher(app.ch, rabbitmq.NotificationsExchange), logger)
	app.sweeper = sweeperservice.New(app.db, app.cache, notifications, metrics.New(prometheus.DefaultRegisterer), clock.WallClock,
		sweeperservice.Options{
			DefaultPlan: cfg.DefaultPlan,
			Location:    loc,
			RunHour:     hour,
			RunMinute:   minute,
			WarningDays: cfg.WarningDays,
			BatchSize:   cfg.BatchSize,
		}, logger)

	return app, nil
}

// Run выполняет один проход при run_once, иначе запускает проверку ежедневно до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if a.runOnce {
		report, err := a.sweeper.Sweep(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("sweep finished", slog.Int("demoted", report.Demoted), slog.Int("warned", report.Warned))
		return nil
	}

	if err := a.sweeper.RunDaily(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("shutting down sweeper")
	return nil
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
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
