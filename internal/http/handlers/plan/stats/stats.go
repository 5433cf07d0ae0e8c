// Package stats отдает администратору статистику по тарифу: пользователи, заказы, выручка.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/params"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type Service interface {
	Stats(ctx context.Context, id string) (*models.PlanStats, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статистика тарифа
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID тарифа"
// @Success 200 {object} map[string]any "Статистика"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Router /plans/{id}/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.stats"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := params.ID(r, "id")
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, "Invalid subscription plan id")
		return
	}

	stats, err := h.service.Stats(r.Context(), id)
	if err != nil {
		log.Error("failed to load plan stats", slog.String("plan_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch subscription statistics")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"stats": stats}))
}
