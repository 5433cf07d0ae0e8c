package remove

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
)

// Service описывает удаление устройства владельцем.
type Service interface {
	Delete(ctx context.Context, userID, id string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить устройство
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID устройства"
// @Success 200 {object} response.MessageResponse "Устройство удалено"
// @Failure 404 {object} response.ErrorResponse "Устройство не найдено"
// @Router /devices/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.remove"

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

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		log.Error("failed to delete device", slog.String("device_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to delete device")
		return
	}

	log.Info("device deleted", slog.String("device_id", id))
	render.JSON(w, r, response.Message("Device deleted successfully"))
}
