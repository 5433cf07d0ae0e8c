// Package list отдает каталог активных тарифных планов.
package list

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

// Service возвращает активные планы.
type Service interface {
	ListActive(ctx context.Context) ([]*models.Plan, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список тарифов
// @Description Активные тарифные планы, отсортированные по цене.
// @Tags Plans
// @Produce json
// @Success 200 {object} map[string]any "Список тарифов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plans, err := h.service.ListActive(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch subscriptions")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"subscriptions": plans}))
}
