// Package position отдает последние координаты устройства с платформы трекинга.
package position

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/http/params"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type Service interface {
	Position(ctx context.Context, userID, id string) ([]models.Position, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Позиция устройства
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID устройства"
// @Success 200 {object} map[string]any "Позиции"
// @Failure 404 {object} response.ErrorResponse "Устройство не найдено или не подключено"
// @Failure 500 {object} response.ErrorResponse "Платформа трекинга недоступна"
// @Router /devices/{id}/position [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.position"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "Access token required")
		return
	}

	id, err := params.ID(r, "id")
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, "Invalid device id")
		return
	}

	positions, err := h.service.Position(r.Context(), userID, id)
	if err != nil {
		log.Error("failed to fetch device position", slog.String("device_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch device position")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"positions": positions}))
}
