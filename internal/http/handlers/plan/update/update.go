// Package update реализует частичное обновление тарифного плана.
//
// Передаются только изменяемые поля, пустое тело запроса отклоняется.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tracker-saas/internal/http/params"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/validation"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// Service описывает обновление плана.
type Service interface {
	Update(ctx context.Context, id string, upd models.PlanUpdate) (*models.Plan, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить тариф
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID тарифа"
// @Param request body models.PlanUpdate true "Изменяемые поля"
// @Success 200 {object} map[string]any "Тариф обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /plans/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.update"

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

	var req models.PlanUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IsEmpty() {
		response.Fail(w, r, http.StatusBadRequest, "No fields to update")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	plan, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update plan", slog.String("plan_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to update subscription")
		return
	}

	log.Info("plan updated", slog.String("plan_id", id))
	render.JSON(w, r, response.OK(response.Payload{
		"message":      "Subscription plan updated successfully",
		"subscription": plan,
	}))
}
