// Package sender доставляет уведомления пользователям по электронной почте.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// Mailer отправляет подготовленные письма. *gomail.Dialer реализует интерфейс.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// NewDialer создает SMTP-клиент из настроек.
func NewDialer(cfg config.SMTP) *gomail.Dialer {
	return gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
}

// SenderService формирует и отправляет письма по событиям уведомлений.
type SenderService struct {
	mailer  Mailer
	from    string
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(mailer Mailer, from string, m *metrics.Metrics, log *slog.Logger) *SenderService {
	return &SenderService{
		mailer:  mailer,
		from:    from,
		metrics: m,
		log:     log,
	}
}

// HandleMessage обработчик сообщения из очереди. Сообщение, которое нельзя
// разобрать или доставить адресату, отбрасывается через rabbitmq.ErrDrop.
func (s *SenderService) HandleMessage(ctx context.Context, body []byte) error {
	const op = "services.sender.HandleMessage"
	log := s.log.With(slog.String("op", op))

	var event models.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal notification event", sl.Err(err))
		s.metrics.EmailSent("dropped")
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDrop, err)
	}
	if event.Email == "" {
		log.Warn("notification event without recipient", slog.String("notification_id", event.NotificationID))
		s.metrics.EmailSent("dropped")
		return fmt.Errorf("%s: %w: empty recipient", op, rabbitmq.ErrDrop)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.DialAndSend(s.compose(&event)); err != nil {
		log.Error("failed to send email", slog.String("notification_id", event.NotificationID), sl.Err(err))
		s.metrics.EmailSent("failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.EmailSent("sent")
	log.Info("email sent", slog.String("notification_id", event.NotificationID), slog.String("type", string(event.Type)))
	return nil
}

func (s *SenderService) compose(e *models.NotificationEvent) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	if e.Name != "" {
		m.SetAddressHeader("To", e.Email, e.Name)
	} else {
		m.SetHeader("To", e.Email)
	}
	m.SetHeader("Subject", subject(e))
	m.SetBody("text/plain", body(e))
	return m
}

func subject(e *models.NotificationEvent) string {
	switch e.Type {
	case models.NotificationExpiryWarning:
		return "Your subscription is expiring soon"
	case models.NotificationExpired:
		return "Your subscription has expired"
	case models.NotificationPaymentSuccess:
		return "Payment received"
	case models.NotificationPaymentFailed:
		return "Payment failed"
	case models.NotificationDeviceLimitExceeded:
		return "Device limit reached"
	default:
		return e.Title
	}
}

func body(e *models.NotificationEvent) string {
	greeting := "Hello"
	if e.Name != "" {
		greeting += ", " + e.Name
	}
	return fmt.Sprintf("%s!\n\n%s\n\n%s\n", greeting, e.Title, e.Message)
}
