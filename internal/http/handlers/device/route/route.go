// Package route отдает трек устройства за интервал времени.
//
// Границы интервала передаются в строке запроса в формате RFC 3339.
package route

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/http/params"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// Service описывает получение трека.
type Service interface {
	Route(ctx context.Context, userID, id string, from, to time.Time) ([]models.Position, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Трек устройства
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID устройства"
// @Param from query string true "Начало интервала, RFC 3339"
// @Param to query string true "Конец интервала, RFC 3339"
// @Success 200 {object} map[string]any "Точки трека"
// @Failure 400 {object} response.ErrorResponse "Некорректный интервал"
// @Failure 404 {object} response.ErrorResponse "Устройство не найдено или не подключено"
// @Router /devices/{id}/route [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.route"

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

	q := r.URL.Query()
	if q.Get("from") == "" || q.Get("to") == "" {
		response.Fail(w, r, http.StatusBadRequest, "From and to dates are required")
		return
	}
	from, errFrom := time.Parse(time.RFC3339, q.Get("from"))
	to, errTo := time.Parse(time.RFC3339, q.Get("to"))
	if errFrom != nil || errTo != nil {
		log.Warn("failed to parse route interval", slog.String("from", q.Get("from")), slog.String("to", q.Get("to")))
		response.Fail(w, r, http.StatusBadRequest, "Dates must be in RFC 3339 format")
		return
	}
	if !from.Before(to) {
		response.Fail(w, r, http.StatusBadRequest, "From must be before to")
		return
	}

	points, err := h.service.Route(r.Context(), userID, id, from, to)
	if err != nil {
		log.Error("failed to fetch device route", slog.String("device_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch device route")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"route": points}))
}
