// Package read реализует HTTP-обработчик получения тарифного плана по ID.
package read

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

// Service описывает чтение плана.
type Service interface {
	Get(ctx context.Context, id string) (*models.Plan, error)
}

// Handler обрабатывает запросы на получение плана.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Тариф по ID
// @Tags Plans
// @Produce json
// @Param id path string true "ID тарифа"
// @Success 200 {object} map[string]any "Тариф"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Router /plans/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := params.ID(r, "id")
	if err != nil {
		log.Warn("failed to decode id from url", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "Invalid subscription plan id")
		return
	}

	plan, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to read plan", slog.String("plan_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch subscription")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"subscription": plan}))
}
