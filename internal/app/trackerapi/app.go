package trackerapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/tracker-saas/internal/cache"
	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/grpc/server"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/public/health"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/jwt"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	"github.com/magabrotheeeer/tracker-saas/internal/migrations"
	"github.com/magabrotheeeer/tracker-saas/internal/services/auth"
	"github.com/magabrotheeeer/tracker-saas/internal/services/device"
	"github.com/magabrotheeeer/tracker-saas/internal/services/notification"
	"github.com/magabrotheeeer/tracker-saas/internal/services/order"
	"github.com/magabrotheeeer/tracker-saas/internal/services/plan"
	"github.com/magabrotheeeer/tracker-saas/internal/services/reconciler"
	"github.com/magabrotheeeer/tracker-saas/internal/services/subscription"
	"github.com/magabrotheeeer/tracker-saas/internal/storage/repository"
	"github.com/magabrotheeeer/tracker-saas/internal/telebirr"
	"github.com/magabrotheeeer/tracker-saas/internal/traccar"
)

const shutdownTimeout = 15 * time.Second

// App HTTP API трекер-сервиса вместе с gRPC health-сервером.
type App struct {
	server     *http.Server
	health     *server.HealthServer
	healthAddr string
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	conn       *amqp.Connection
	ch         *amqp.Channel
}

// New подключает хранилища и брокер, собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.Connect(ctx, cfg.StorageConnectionString, cfg.StorageConnectAttempts, cfg.StorageConnectDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		db.Close()
		cacheRedis.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		db.Close()
		cacheRedis.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	publicKey, err := telebirr.LoadPublicKey(cfg.PublicKeyPath)
	if err != nil {
		app := &App{logger: logger, db: db, cache: cacheRedis, conn: conn, ch: ch}
		app.close()
		return nil, fmt.Errorf("failed to load gateway public key: %w", err)
	}

	clk := clock.WallClock
	m := metrics.New(prometheus.DefaultRegisterer)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	tracker := traccar.NewClient(cfg.Traccar)
	gateway := telebirr.NewClient(cfg.Telebirr)

	notifications := notification.NewNotificationService(db, rabbitmq.NewPublisher(ch, rabbitmq.NotificationsExchange), logger)
	svc := Services{
		Auth:          auth.NewAuthService(db, db, tracker, jwtMaker, clk, cfg.DefaultPlan, logger),
		Plans:         plan.NewPlanService(db, cacheRedis, cfg.PlanCacheTTL, logger),
		Subscriptions: subscription.NewSubscriptionService(db, clk),
		Devices:       device.NewDeviceService(db, tracker, notifications, logger),
		Orders:        order.NewOrderService(db, gateway, notifications, m, clk, logger),
		Reconciler:    reconciler.New(db, telebirr.NewVerifier(publicKey), notifications, m, clk, logger),
		Notifications: notifications,
	}

	checks := map[string]health.Pinger{
		"database": db,
		"redis":    cacheRedis,
		"rabbitmq": rabbitmq.NewHealth(conn),
	}
	grpcChecks := make(map[string]server.Pinger, len(checks))
	for name, c := range checks {
		grpcChecks[name] = c
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc, RouteOptions{
		Tokens:    jwtMaker,
		Health:    health.New(logger, clk, checks),
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		health:     server.NewHealthServer(grpcChecks, clk, cfg.HealthCheckInterval, logger),
		healthAddr: cfg.AddressGRPC,
		logger:     logger,
		db:         db,
		cache:      cacheRedis,
		conn:       conn,
		ch:         ch,
	}, nil
}

// Run обслуживает HTTP и gRPC до отмены ctx, затем останавливает серверы.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	lis, err := net.Listen("tcp", a.healthAddr)
	if err != nil {
		return fmt.Errorf("failed to listen grpc health: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.health.Serve(ctx, lis)
	})
	g.Go(func() error {
		return a.health.Monitor(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	})

	return g.Wait()
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
