// Package ordercancel отменяет заказ пользователя, пока он ожидает оплаты.
package ordercancel

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

type Service interface {
	Cancel(ctx context.Context, userID, orderID string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить заказ
// @Description Отменяет только заказ в статусе PENDING.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} response.MessageResponse "Заказ отменен"
// @Failure 404 {object} response.ErrorResponse "Нет ожидающего заказа"
// @Router /payments/orders/{id}/cancel [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.ordercancel"

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
		response.Fail(w, r, http.StatusBadRequest, "Invalid order id")
		return
	}

	if err := h.service.Cancel(r.Context(), userID, id); err != nil {
		log.Warn("failed to cancel order", slog.String("order_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to cancel order")
		return
	}

	log.Info("order cancelled", slog.String("order_id", id))
	render.JSON(w, r, response.Message("Order cancelled successfully"))
}
