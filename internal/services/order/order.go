// Package order журнал заказов на покупку тарифных планов.
//
// Заказ создаётся в PENDING, после принятия платежа шлюзом переходит в PROCESSING,
// а в COMPLETED его переводит только подтверждённое уведомление шлюза.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
	"github.com/magabrotheeeer/tracker-saas/internal/services/notification"
	"github.com/magabrotheeeer/tracker-saas/internal/telebirr"
)

// Параметры постраничной выдачи истории заказов.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ErrInvalidStatus неизвестный статус в фильтре.
var ErrInvalidStatus = errors.New("invalid order status")

// Repository хранилище заказов, планов и пользователей.
type Repository interface {
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateSubscription(ctx context.Context, userID, planID string, expiry time.Time) error
	CreateOrder(ctx context.Context, o *models.Order) error
	GetUserOrder(ctx context.Context, userID, id string) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]*models.Order, int, error)
	ListOrders(ctx context.Context, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error)
	TransitionOrder(ctx context.Context, id string, to models.OrderStatus, paymentRef *string, from ...models.OrderStatus) (bool, error)
	CancelOrder(ctx context.Context, userID, id string) (bool, error)
}

// PaymentGateway платёжный шлюз.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, p telebirr.PaymentRequest) (*models.PaymentHandle, error)
}

// Notifier уведомления об оплате.
type Notifier interface {
	PaymentSuccess(ctx context.Context, to notification.Recipient, planName string, amount decimal.Decimal)
}

// CreateResult результат оформления заказа.
type CreateResult struct {
	RequiresPayment bool
	Message         string
	Order           *models.Order
	Payment         *models.PaymentHandle
}

// OrderService бизнес-логика заказов.
type OrderService struct {
	repo     Repository
	gateway  PaymentGateway
	notifier Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	log      *slog.Logger
}

// NewOrderService создает сервис. notifier и m могут быть nil.
func NewOrderService(repo Repository, gateway PaymentGateway, notifier Notifier, m *metrics.Metrics,
	clk clock.Clock, log *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		metrics:  m,
		clock:    clk,
		log:      log,
	}
}

// Create оформляет заказ на план planID.
//
// Бесплатный план назначается сразу, без записи в журнале заказов. Для платного
// плана заказ создаётся в PENDING, затем шлюз создаёт платёж: при успехе заказ
// переходит в PROCESSING с prepay_id в paymentRef, при отказе в FAILED и ошибка
// возвращается вызывающему.
func (s *OrderService) Create(ctx context.Context, userID, planID, returnURL string) (*CreateResult, error) {
	const op = "services.order.Create"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID), slog.String("plan_id", planID))

	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.PlanID == plan.ID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadySubscribed)
	}

	if plan.IsFree() {
		if err := s.repo.UpdateSubscription(ctx, userID, plan.ID, plan.ExpiryFrom(s.clock.Now().UTC())); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.metrics.OrderCreated("free")
		if s.notifier != nil {
			s.notifier.PaymentSuccess(ctx, recipient(user), plan.Name, decimal.Zero)
		}
		log.Info("free plan activated")
		return &CreateResult{Message: "Free plan activated successfully"}, nil
	}

	o := &models.Order{
		ID:       uuid.NewString(),
		UserID:   userID,
		PlanID:   plan.ID,
		Amount:   plan.Price,
		Currency: models.DefaultCurrency,
		Status:   models.OrderPending,
		Plan:     plan,
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log = log.With(slog.String("order_id", o.ID))

	handle, err := s.gateway.CreatePayment(ctx, telebirr.PaymentRequest{
		MerchantOrderID: o.ID,
		Amount:          o.Amount,
		Subject:         fmt.Sprintf("%s Plan Subscription", plan.Name),
		ReturnURL:       returnURL,
	})
	if err != nil {
		log.Error("payment creation failed", sl.Err(err))
		s.metrics.OrderCreated("failed")
		if _, terr := s.repo.TransitionOrder(ctx, o.ID, models.OrderFailed, nil, models.OrderPending); terr != nil {
			log.Error("failed to mark order as failed", sl.Err(terr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	applied, err := s.repo.TransitionOrder(ctx, o.ID, models.OrderProcessing, &handle.PrepayID, models.OrderPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		log.Warn("order left PENDING before payment was attached")
		return nil, fmt.Errorf("%s: %w", op, models.ErrPendingOrderNotFound)
	}
	o.Status = models.OrderProcessing
	o.PaymentRef = &handle.PrepayID
	s.metrics.OrderCreated("processing")
	log.Info("payment order created", slog.String("prepay_id", handle.PrepayID), slog.String("amount", o.Amount.String()))

	return &CreateResult{
		RequiresPayment: true,
		Message:         "Payment order created successfully",
		Order:           o,
		Payment:         handle,
	}, nil
}

// Cancel отменяет заказ пользователя, пока он в PENDING.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) error {
	const op = "services.order.Cancel"
	cancelled, err := s.repo.CancelOrder(ctx, userID, orderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !cancelled {
		return fmt.Errorf("%s: %w", op, models.ErrPendingOrderNotFound)
	}
	s.log.Info("order cancelled", slog.String("order_id", orderID), slog.String("user_id", userID))
	return nil
}

// Get заказ пользователя с планом.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*models.Order, error) {
	const op = "services.order.Get"
	o, err := s.repo.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// History страница заказов пользователя, новые первыми.
func (s *OrderService) History(ctx context.Context, userID string, page, limit int) (*models.OrderPage, error) {
	const op = "services.order.History"
	page, limit = normalizePage(page, limit)
	orders, total, err := s.repo.ListUserOrders(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.OrderPage{Orders: orders, Pagination: models.NewPagination(page, limit, total)}, nil
}

// AdminList страница всех заказов с необязательным фильтром по статусу.
func (s *OrderService) AdminList(ctx context.Context, status models.OrderStatus, page, limit int) (*models.OrderPage, error) {
	const op = "services.order.AdminList"
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidStatus)
	}
	page, limit = normalizePage(page, limit)
	orders, total, err := s.repo.ListOrders(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.OrderPage{Orders: orders, Pagination: models.NewPagination(page, limit, total)}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func recipient(u *models.User) notification.Recipient {
	return notification.Recipient{ID: u.ID, Name: u.Name, Email: u.Email}
}
