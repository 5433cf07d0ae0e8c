// Package main Tracker SaaS API
//
// @title           Tracker SaaS API
// @version         1.0
// @description     API управления подписками, GPS-устройствами и оплатой через Telebirr
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/magabrotheeeer/tracker-saas/docs"
	"github.com/magabrotheeeer/tracker-saas/internal/app/trackerapi"
	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/grpc/client"
	"github.com/magabrotheeeer/tracker-saas/internal/grpc/server"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
)

func main() {
	healthcheck := flag.String("healthcheck", "", "probe the gRPC health server at the given address and exit")
	flag.Parse()

	if *healthcheck != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Probe(ctx, *healthcheck, server.ServiceName); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env, cfg.LogFile)

	logger.Info("starting tracker-api", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := trackerapi.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("tracker-api stopped gracefully")
}
