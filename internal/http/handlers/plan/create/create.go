// Package create реализует HTTP-обработчик создания тарифного плана администратором.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/validation"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// Service описывает создание плана.
type Service interface {
	Create(ctx context.Context, in models.PlanCreate) (*models.Plan, error)
}

// Handler обрабатывает создание планов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать тариф
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PlanCreate true "Параметры тарифа"
// @Success 201 {object} map[string]any "Тариф создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или имя занято"
// @Failure 403 {object} response.ErrorResponse "Нужны права администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.PlanCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	plan, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		response.FailWith(w, r, err, "Failed to create subscription")
		return
	}

	log.Info("plan created", slog.String("plan_id", plan.ID), slog.String("name", plan.Name))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(response.Payload{
		"message":      "Subscription plan created successfully",
		"subscription": plan,
	}))
}
