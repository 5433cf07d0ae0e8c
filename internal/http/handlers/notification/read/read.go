package read

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

// Service отмечает уведомление прочитанным.
type Service interface {
	MarkRead(ctx context.Context, userID, id string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отметить уведомление прочитанным
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID уведомления"
// @Success 200 {object} response.MessageResponse "Отмечено"
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Router /notifications/{id}/read [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.read"

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
		response.Fail(w, r, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, id); err != nil {
		log.Warn("failed to mark notification as read", slog.String("notification_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to update notification")
		return
	}

	render.JSON(w, r, response.Message("Notification marked as read"))
}
