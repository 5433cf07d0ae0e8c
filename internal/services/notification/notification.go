// Package notification ведёт журнал уведомлений пользователей и передаёт их
// на почтовую рассылку.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Repository хранилище журнала уведомлений.
type Repository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
}

// Publisher публикует событие в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Recipient получатель уведомления.
type Recipient struct {
	ID    string
	Name  string
	Email string
}

// NotificationService создаёт уведомления и отдаёт их пользователю.
type NotificationService struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// NewNotificationService создаёт сервис. publisher может быть nil, тогда письма не рассылаются.
func NewNotificationService(repo Repository, publisher Publisher, log *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Notify записывает уведомление в журнал и публикует событие для рассылки.
// Ошибки только логируются: уведомление не должно ломать вызывающую операцию.
func (s *NotificationService) Notify(ctx context.Context, to Recipient, typ models.NotificationType, title, message string, data map[string]any) {
	const op = "services.notification.Notify"
	log := s.log.With(slog.String("op", op), slog.String("user_id", to.ID), slog.String("type", string(typ)))

	n := &models.Notification{
		ID:      uuid.NewString(),
		UserID:  to.ID,
		Type:    typ,
		Title:   title,
		Message: message,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Warn("failed to encode notification data", sl.Err(err))
		} else {
			n.Data = raw
		}
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		log.Error("failed to save notification", sl.Err(err))
		return
	}

	if s.publisher == nil || to.Email == "" {
		return
	}
	event := models.NotificationEvent{
		NotificationID: n.ID,
		UserID:         to.ID,
		Email:          to.Email,
		Name:           to.Name,
		Type:           typ,
		Title:          title,
		Message:        message,
		CreatedAt:      n.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.EmailRoutingKey, event); err != nil {
		log.Error("failed to publish notification event", sl.Err(err))
	}
}

// ExpiryWarning предупреждает, что подписка истекает через daysLeft дней.
func (s *NotificationService) ExpiryWarning(ctx context.Context, to Recipient, daysLeft int, planName string) {
	s.Notify(ctx, to, models.NotificationExpiryWarning,
		"Subscription Expiring Soon",
		fmt.Sprintf("Your %s subscription will expire in %d days. Please renew to continue using all features.", planName, daysLeft),
		map[string]any{"daysLeft": daysLeft, "planName": planName})
}

// SubscriptionExpired сообщает о переводе на план по умолчанию.
func (s *NotificationService) SubscriptionExpired(ctx context.Context, to Recipient, planName, defaultPlan string) {
	s.Notify(ctx, to, models.NotificationExpired,
		"Subscription Expired",
		fmt.Sprintf("Your %s subscription has expired. You have been moved to the %s plan.", planName, defaultPlan),
		map[string]any{"planName": planName})
}

// PaymentSuccess сообщает об успешной оплате.
func (s *NotificationService) PaymentSuccess(ctx context.Context, to Recipient, planName string, amount decimal.Decimal) {
	s.Notify(ctx, to, models.NotificationPaymentSuccess,
		"Payment Successful",
		fmt.Sprintf("Your payment of %s ETB for %s plan has been processed successfully.", amount.String(), planName),
		map[string]any{"planName": planName, "amount": amount})
}

// PaymentFailed сообщает о неудачной оплате.
func (s *NotificationService) PaymentFailed(ctx context.Context, to Recipient, planName string, amount decimal.Decimal) {
	s.Notify(ctx, to, models.NotificationPaymentFailed,
		"Payment Failed",
		fmt.Sprintf("Your payment of %s ETB for %s plan could not be processed. Please try again.", amount.String(), planName),
		map[string]any{"planName": planName, "amount": amount})
}

// DeviceLimitExceeded сообщает, что устройство не добавлено из-за лимита плана.
func (s *NotificationService) DeviceLimitExceeded(ctx context.Context, to Recipient, currentLimit int) {
	s.Notify(ctx, to, models.NotificationDeviceLimitExceeded,
		"Device Limit Exceeded",
		fmt.Sprintf("You have reached your device limit of %d. Please upgrade your plan to add more devices.", currentLimit),
		map[string]any{"currentLimit": currentLimit})
}

// List возвращает последние уведомления пользователя и число непрочитанных.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]*models.Notification, int, error) {
	const op = "services.notification.List"
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	list, err := s.repo.ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	unread, err := s.repo.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return list, unread, nil
}

// MarkRead отмечает уведомление прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	const op = "services.notification.MarkRead"
	ok, err := s.repo.MarkNotificationRead(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, models.ErrNotificationNotFound)
	}
	return nil
}

// MarkAllRead отмечает прочитанными все уведомления пользователя.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	const op = "services.notification.MarkAllRead"
	n, err := s.repo.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
