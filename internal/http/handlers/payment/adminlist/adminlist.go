// Package adminlist отдает администратору все заказы с фильтром по статусу.
package adminlist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/params"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
	"github.com/magabrotheeeer/tracker-saas/internal/services/order"
)

type Service interface {
	AdminList(ctx context.Context, status models.OrderStatus, page, limit int) (*models.OrderPage, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Все заказы
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, PROCESSING, COMPLETED, FAILED или CANCELLED"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} map[string]any "Заказы и пагинация"
// @Failure 400 {object} response.ErrorResponse "Некорректный статус"
// @Failure 403 {object} response.ErrorResponse "Нужны права администратора"
// @Router /admin/orders [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.adminlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, errPage := params.Int(r, "page", 0)
	limit, errLimit := params.Int(r, "limit", 0)
	if errPage != nil || errLimit != nil {
		response.Fail(w, r, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}
	status := models.OrderStatus(strings.ToUpper(r.URL.Query().Get("status")))

	res, err := h.service.AdminList(r.Context(), status, page, limit)
	if err != nil {
		if errors.Is(err, order.ErrInvalidStatus) {
			response.Fail(w, r, http.StatusBadRequest, "Invalid order status")
			return
		}
		log.Error("failed to list orders", sl.Err(err))
		response.FailWith(w, r, err, "Failed to fetch orders")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{
		"orders":     res.Orders,
		"pagination": res.Pagination,
	}))
}
