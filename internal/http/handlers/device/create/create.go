// Package create реализует HTTP-обработчик добавления GPS-трекера.
//
// Устройство сохраняется локально даже если платформа трекинга недоступна,
// лимит устройств тарифа проверяется в сервисе.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/validation"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// Request данные нового устройства
type Request struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	IMEI string `json:"imei" validate:"required,len=15,numeric"`
}

// Service описывает создание устройства.
type Service interface {
	Create(ctx context.Context, userID, name, imei string) (*models.Device, error)
}

// Handler обрабатывает добавление устройств.
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
// @Summary Добавить устройство
// @Description Регистрирует трекер по IMEI. Число устройств ограничено тарифом.
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Устройство"
// @Success 201 {object} map[string]any "Устройство создано"
// @Failure 400 {object} response.ErrorResponse "IMEI занят или достигнут лимит"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /devices [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		response.Fail(w, r, http.StatusUnauthorized, "Access token required")
		return
	}

	var req Request
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

	device, err := h.service.Create(r.Context(), userID, req.Name, req.IMEI)
	if err != nil {
		log.Warn("failed to create device", sl.Err(err))
		response.FailWith(w, r, err, "Failed to create device")
		return
	}

	log.Info("device created", slog.String("device_id", device.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(response.Payload{
		"message": "Device created successfully",
		"device":  device,
	}))
}
