// Package server реализует gRPC-сервер проверки состояния (grpc.health.v1).
//
// Статус обслуживания выставляется по результатам периодической проверки
// зависимостей: база данных и Redis.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/juju/clock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
)

// ServiceName имя сервиса в ответах health-проверки.
const ServiceName = "tracker.api"

// Pinger зависимость, доступность которой проверяется.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer gRPC-сервер со службой health.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	checks     map[string]Pinger
	clock      clock.Clock
	interval   time.Duration
	log        *slog.Logger
}

// NewHealthServer создает сервер. До первой проверки статус NOT_SERVING.
func NewHealthServer(checks map[string]Pinger, clk clock.Clock, interval time.Duration, log *slog.Logger) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{
		grpcServer: srv,
		health:     hs,
		checks:     checks,
		clock:      clk,
		interval:   interval,
		log:        log,
	}
}

// Check проверяет зависимости и обновляет статус сервиса.
func (s *HealthServer) Check(ctx context.Context) bool {
	const op = "grpc.server.Check"
	ok := true
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			s.log.Warn("dependency unavailable", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			ok = false
		}
	}

	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", st)
	return ok
}

// Monitor проверяет зависимости каждые interval до отмены ctx.
func (s *HealthServer) Monitor(ctx context.Context) error {
	for {
		checkCtx, cancel := context.WithTimeout(ctx, s.interval)
		s.Check(checkCtx)
		cancel()

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(s.interval):
		}
	}
}

// Serve обслуживает соединения на lis до отмены ctx.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gRPC health server listening", slog.String("address", lis.Addr().String()))
		errCh <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
