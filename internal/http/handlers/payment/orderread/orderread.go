package orderread

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

// Service описывает чтение заказа владельцем.
type Service interface {
	Get(ctx context.Context, userID, orderID string) (*models.Order, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Заказ по ID
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} map[string]any "Заказ"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Router /payments/orders/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.orderread"

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

	o, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		log.Error("failed to read order", slog.String("order_id", id), sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch order")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"order": o}))
}
