// Package webhook принимает уведомления Telebirr о результате оплаты.
//
// Запрос не требует токена: подлинность проверяется по RSA-подписи в теле.
// Тело передается сервису как есть, чтобы каноническая строка строилась
// из исходных полей.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/services/reconciler"
)

const maxBodyBytes = 64 << 10

// Service обрабатывает уведомление о платеже.
type Service interface {
	Handle(ctx context.Context, body []byte) (reconciler.Outcome, error)
}

// Handler обрабатывает уведомления платежного шлюза.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Уведомление Telebirr
// @Description Подписанное уведомление о результате оплаты заказа.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись, сумма или тело"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Заказ ещё не перешёл в обработку, уведомление нужно повторить"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки"
// @Router /payments/notify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read notification body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.service.Handle(r.Context(), body)
	if err != nil {
		log.Error("payment notification rejected", sl.Err(err))
		response.FailWith(w, r, err, "Webhook processing failed")
		return
	}

	log.Info("payment notification processed", slog.String("outcome", string(outcome)))
	render.JSON(w, r, response.OK(response.Payload{
		"message": "Notification processed",
		"outcome": outcome,
	}))
}
