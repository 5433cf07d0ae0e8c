// Package reconciler применяет уведомления платёжного шлюза к заказам и подпискам.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
	"github.com/magabrotheeeer/tracker-saas/internal/services/notification"
	"github.com/magabrotheeeer/tracker-saas/internal/telebirr"
)

// Outcome результат обработки уведомления.
type Outcome string

// Результаты обработки уведомления.
const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	// OutcomeIgnored заказ уже не в том статусе, из которого возможен переход.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeUnhandled неизвестный tradeStatus, состояние не меняется.
	OutcomeUnhandled Outcome = "unhandled"
)

// Repository хранилище заказов.
type Repository interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CompleteOrder(ctx context.Context, o *models.Order, paymentRef string, expiry time.Time) (bool, error)
	TransitionOrder(ctx context.Context, id string, to models.OrderStatus, paymentRef *string, from ...models.OrderStatus) (bool, error)
}

// SignatureVerifier проверяет подпись уведомления.
type SignatureVerifier interface {
	Verify(payload map[string]any) error
}

// Notifier уведомления о результате оплаты.
type Notifier interface {
	PaymentSuccess(ctx context.Context, to notification.Recipient, planName string, amount decimal.Decimal)
	PaymentFailed(ctx context.Context, to notification.Recipient, planName string, amount decimal.Decimal)
}

// Reconciler обработчик уведомлений шлюза.
type Reconciler struct {
	repo     Repository
	verifier SignatureVerifier
	notifier Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	log      *slog.Logger
}

// New создает Reconciler. notifier и m могут быть nil.
func New(repo Repository, verifier SignatureVerifier, notifier Notifier, m *metrics.Metrics,
	clk clock.Clock, log *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		metrics:  m,
		clock:    clk,
		log:      log,
	}
}

// Handle проверяет и применяет уведомление из тела запроса body.
//
// Отклонённое уведомление (подпись, сумма, неизвестный заказ) не меняет состояние
// и возвращает ошибку с соответствующим sentinel из models. Повтор уже применённого
// уведомления возвращает OutcomeIgnored без ошибки. SUCCESS для заказа, который ещё
// не перешёл в PROCESSING, возвращает models.ErrOrderNotReady, чтобы шлюз повторил отправку.
func (r *Reconciler) Handle(ctx context.Context, body []byte) (Outcome, error) {
	const op = "services.reconciler.Handle"
	log := r.log.With(slog.String("op", op))

	outcome, err := r.handle(ctx, log, body)
	if err != nil {
		r.metrics.WebhookNotification(rejectLabel(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	r.metrics.WebhookNotification(string(outcome))
	return outcome, nil
}

func (r *Reconciler) handle(ctx context.Context, log *slog.Logger, body []byte) (Outcome, error) {
	payload, err := telebirr.DecodePayload(body)
	if err != nil {
		log.Warn("undecodable payment notification", sl.Err(err))
		return "", err
	}
	if err := r.verifier.Verify(payload); err != nil {
		log.Error("invalid payment notification signature", sl.Err(err))
		return "", err
	}
	n, err := telebirr.ParseNotification(payload)
	if err != nil {
		log.Warn("malformed payment notification", sl.Err(err))
		return "", err
	}
	log = log.With(slog.String("order_id", n.MerchantOrderID), slog.String("trade_status", n.TradeStatus))
	log.Info("payment notification received", slog.String("out_trade_no", n.OutTradeNo))

	o, err := r.repo.GetOrder(ctx, n.MerchantOrderID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			log.Error("order not found for payment notification")
		}
		return "", err
	}
	if !n.TotalAmount.Equal(o.Amount) {
		log.Error("amount mismatch in payment notification",
			slog.String("expected", o.Amount.String()), slog.String("received", n.TotalAmount.String()))
		return "", models.ErrAmountMismatch
	}

	switch n.TradeStatus {
	case telebirr.TradeStatusSuccess:
		return r.complete(ctx, log, o, n.OutTradeNo)
	case telebirr.TradeStatusFailed:
		return r.fail(ctx, log, o)
	default:
		log.Info("unhandled trade status, order left unchanged")
		return OutcomeUnhandled, nil
	}
}

func (r *Reconciler) complete(ctx context.Context, log *slog.Logger, o *models.Order, outTradeNo string) (Outcome, error) {
	expiry := o.Plan.ExpiryFrom(r.clock.Now().UTC())
	applied, err := r.repo.CompleteOrder(ctx, o, outTradeNo, expiry)
	if err != nil {
		return "", err
	}
	if !applied {
		current, err := r.repo.GetOrder(ctx, o.ID)
		if err != nil {
			return "", err
		}
		// шлюз должен повторить уведомление, пока заказ не в PROCESSING
		if current.Status == models.OrderPending || current.Status == models.OrderProcessing {
			log.Warn("payment success arrived before order is processing", slog.String("status", string(current.Status)))
			return "", models.ErrOrderNotReady
		}
		log.Warn("payment success ignored, order already finished", slog.String("status", string(current.Status)))
		return OutcomeIgnored, nil
	}
	if r.notifier != nil {
		r.notifier.PaymentSuccess(ctx, recipient(o), o.Plan.Name, o.Amount)
	}
	log.Info("payment completed", slog.String("user_id", o.UserID), slog.String("plan", o.Plan.Name),
		slog.Time("expiry", expiry))
	return OutcomeCompleted, nil
}

func (r *Reconciler) fail(ctx context.Context, log *slog.Logger, o *models.Order) (Outcome, error) {
	applied, err := r.repo.TransitionOrder(ctx, o.ID, models.OrderFailed, nil, models.OrderPending, models.OrderProcessing)
	if err != nil {
		return "", err
	}
	if !applied {
		log.Warn("payment failure ignored, order already finished", slog.String("status", string(o.Status)))
		return OutcomeIgnored, nil
	}
	if r.notifier != nil {
		r.notifier.PaymentFailed(ctx, recipient(o), o.Plan.Name, o.Amount)
	}
	log.Info("payment failed", slog.String("user_id", o.UserID))
	return OutcomeFailed, nil
}

func recipient(o *models.Order) notification.Recipient {
	to := notification.Recipient{ID: o.UserID}
	if o.User != nil {
		to.Name = o.User.Name
		to.Email = o.User.Email
	}
	return to
}

func rejectLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, models.ErrInvalidNotification):
		return "invalid"
	case errors.Is(err, models.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, models.ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, models.ErrOrderNotReady):
		return "not_ready"
	default:
		return "error"
	}
}
