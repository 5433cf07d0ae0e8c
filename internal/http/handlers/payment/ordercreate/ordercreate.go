// Package ordercreate реализует HTTP-обработчик оформления подписки.
//
// Бесплатный тариф активируется сразу. Для платного создается заказ и
// платежная сессия Telebirr, ссылка на оплату возвращается клиенту.
package ordercreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/validation"
	"github.com/magabrotheeeer/tracker-saas/internal/services/order"
)

// Request выбор тарифа
type Request struct {
	PlanID    string `json:"planId" validate:"required,uuid"`
	ReturnURL string `json:"returnUrl" validate:"omitempty,url"`
}

// Service описывает оформление заказа.
type Service interface {
	Create(ctx context.Context, userID, planID, returnURL string) (*order.CreateResult, error)
}

// Handler обрабатывает создание заказов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

// ServeHTTP godoc
// @Summary Оформить подписку
// @Description Для бесплатного тарифа сразу меняет подписку, для платного создает заказ и ссылку на оплату.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Тариф"
// @Success 200 {object} map[string]any "Бесплатный тариф активирован"
// @Success 201 {object} map[string]any "Заказ создан, требуется оплата"
// @Failure 400 {object} response.ErrorResponse "Тариф уже подключен или платеж не создан"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /payments/orders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.ordercreate"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	res, err := h.service.Create(r.Context(), userID, req.PlanID, req.ReturnURL)
	if err != nil {
		log.Error("failed to create order", slog.String("plan_id", req.PlanID), sl.Err(err))
		response.FailWith(w, r, err, "Failed to create payment order")
		return
	}

	if !res.RequiresPayment {
		log.Info("free plan activated", slog.String("plan_id", req.PlanID))
		render.JSON(w, r, response.OK(response.Payload{
			"message":         res.Message,
			"requiresPayment": false,
		}))
		return
	}

	log.Info("payment order created", slog.String("order_id", res.Order.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(response.Payload{
		"message":         res.Message,
		"requiresPayment": true,
		"order":           res.Order,
		"payment":         res.Payment,
	}))
}
