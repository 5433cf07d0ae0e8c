// Package history отдает постраничную историю заказов пользователя.
package history

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
	History(ctx context.Context, userID string, page, limit int) (*models.OrderPage, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История заказов
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} map[string]any "Заказы и пагинация"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Router /payments/orders [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "Access token required")
		return
	}

	page, errPage := params.Int(r, "page", 0)
	limit, errLimit := params.Int(r, "limit", 0)
	if errPage != nil || errLimit != nil {
		response.Fail(w, r, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	res, err := h.service.History(r.Context(), userID, page, limit)
	if err != nil {
		log.Error("failed to load order history", sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch payment history")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{
		"orders":     res.Orders,
		"pagination": res.Pagination,
	}))
}
