// Package stats отдает общую статистику сервиса без авторизации.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type Service interface {
	PublicStats(ctx context.Context) (*models.PublicStats, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Публичная статистика
// @Tags Public
// @Produce json
// @Success 200 {object} map[string]any "Число пользователей, устройств и тарифов"
// @Router /public/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.stats"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.PublicStats(r.Context())
	if err != nil {
		log.Error("failed to load public stats", sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch statistics")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"stats": stats}))
}
