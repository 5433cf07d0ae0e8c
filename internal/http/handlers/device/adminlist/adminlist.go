// Package adminlist отдает администратору все устройства с владельцами.
package adminlist

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

const (
	defaultLimit = 50
	maxLimit     = 100
)

type Service interface {
	ListAll(ctx context.Context, limit, offset int) ([]*models.Device, int, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Все устройства
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Устройства"
// @Failure 403 {object} response.ErrorResponse "Нужны права администратора"
// @Router /admin/devices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.adminlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := params.Int(r, "limit", defaultLimit)
	if err != nil || limit < 1 {
		response.Fail(w, r, http.StatusBadRequest, "Invalid limit")
		return
	}
	limit = min(limit, maxLimit)
	offset, err := params.Int(r, "offset", 0)
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, "Invalid offset")
		return
	}

	devices, total, err := h.service.ListAll(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list devices", sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch devices")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{
		"devices": devices,
		"total":   total,
	}))
}
