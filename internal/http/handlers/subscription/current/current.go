// Package current отдает состояние подписки текущего пользователя.
package current

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

// Service вычисляет состояние подписки.
type Service interface {
	Current(ctx context.Context, userID string) (*models.SubscriptionStatus, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Текущая подписка
// @Description Тариф, дата окончания, оставшиеся дни и использование лимита устройств.
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Состояние подписки"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /subscription [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.current"

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

	status, err := h.service.Current(r.Context(), userID)
	if err != nil {
		log.Error("failed to compute subscription status", sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch subscription")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"subscription": status}))
}
