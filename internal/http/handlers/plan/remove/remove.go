// Package remove удаляет тарифный план, на который не ссылаются пользователи и заказы.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/params"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
)

// Service описывает удаление плана.
type Service interface {
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить тариф
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID тарифа"
// @Success 200 {object} response.MessageResponse "Тариф удален"
// @Failure 400 {object} response.ErrorResponse "Тариф используется"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Router /plans/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.remove"

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

	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Error("failed to delete plan", slog.String("plan_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to delete subscription")
		return
	}

	log.Info("plan deleted", slog.String("plan_id", id))
	render.JSON(w, r, response.Message("Subscription plan deleted successfully"))
}
