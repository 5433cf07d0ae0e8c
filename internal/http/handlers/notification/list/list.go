// Package list отдает последние уведомления пользователя и число непрочитанных.
package list

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
	List(ctx context.Context, userID string, limit int) ([]*models.Notification, int, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Уведомления
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Количество, по умолчанию 20"
// @Success 200 {object} map[string]any "Уведомления и число непрочитанных"
// @Router /notifications [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "Access token required")
		return
	}

	limit, err := params.Int(r, "limit", 0)
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, "Invalid limit")
		return
	}

	list, unread, err := h.service.List(r.Context(), userID, limit)
	if err != nil {
		log.Error("failed to list notifications", sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch notifications")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{
		"notifications": list,
		"unreadCount":   unread,
	}))
}
