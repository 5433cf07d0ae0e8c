package readall

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
)

type Service interface {
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отметить все уведомления прочитанными
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Число обновленных уведомлений"
// @Router /notifications/read-all [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.readall"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "Access token required")
		return
	}

	n, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		log.Error("failed to mark notifications as read", sl.Err(err))
		response.FailWith(w, r, err, "Failed to update notifications")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{
		"message": "All notifications marked as read",
		"updated": n,
	}))
}
