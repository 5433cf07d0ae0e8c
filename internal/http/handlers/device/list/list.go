// Package list отдает устройства текущего пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type Service interface {
	List(ctx context.Context, userID string) ([]*models.Device, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Мои устройства
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список устройств"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Router /devices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.list"

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

	devices, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Error("failed to list devices", sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch devices")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"devices": devices}))
}
