// Package health проверяет доступность зависимостей сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/juju/clock"

	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
)

const checkTimeout = 2 * time.Second

// Pinger зависимость, доступность которой проверяется.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log    *slog.Logger
	clock  clock.Clock
	checks map[string]Pinger
}

// New создает Handler. checks именованные зависимости, например "database" и "redis".
func New(log *slog.Logger, clk clock.Clock, checks map[string]Pinger) *Handler {
	return &Handler{log: log, clock: clk, checks: checks}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Public
// @Produce json
// @Success 200 {object} map[string]any "Сервис работает"
// @Failure 503 {object} map[string]any "Зависимость недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.health"

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status := "OK"
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.log.Error("health check failed", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			deps[name] = "down"
			status = "DEGRADED"
			continue
		}
		deps[name] = "up"
	}

	if status != "OK" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response.Payload{
		"success":      status == "OK",
		"status":       status,
		"dependencies": deps,
		"timestamp":    h.clock.Now().UTC(),
	})
}
