// Package metrics счётчики Prometheus для платежей и ежедневной проверки подписок.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracker"

// Metrics набор счётчиков процесса. Методы допускают nil-получатель.
type Metrics struct {
	webhookNotifications *prometheus.CounterVec
	ordersCreated        *prometheus.CounterVec
	sweeperDemotions     prometheus.Counter
	sweeperWarnings      prometheus.Counter
	emailsSent           *prometheus.CounterVec
}

// New регистрирует счётчики в reg. Для процесса передаётся prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		webhookNotifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_notifications_total",
			Help:      "Payment notifications by processing outcome.",
		}, []string{"outcome"}),
		ordersCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Subscription orders by result.",
		}, []string{"result"}),
		sweeperDemotions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_demotions_total",
			Help:      "Users moved to the default plan after expiry.",
		}),
		sweeperWarnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_warnings_total",
			Help:      "Expiry warnings emitted.",
		}),
		emailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Notification e-mails by delivery result.",
		}, []string{"result"}),
	}
}

// WebhookNotification учитывает результат обработки уведомления шлюза.
func (m *Metrics) WebhookNotification(outcome string) {
	if m == nil {
		return
	}
	m.webhookNotifications.WithLabelValues(outcome).Inc()
}

// OrderCreated учитывает создание заказа: free, processing или failed.
func (m *Metrics) OrderCreated(result string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(result).Inc()
}

// Demoted учитывает перевод пользователя на план по умолчанию.
func (m *Metrics) Demoted() {
	if m == nil {
		return
	}
	m.sweeperDemotions.Inc()
}

// Warned учитывает предупреждение об окончании подписки.
func (m *Metrics) Warned() {
	if m == nil {
		return
	}
	m.sweeperWarnings.Inc()
}

// EmailSent учитывает попытку отправки письма: sent, failed или dropped.
func (m *Metrics) EmailSent(result string) {
	if m == nil {
		return
	}
	m.emailsSent.WithLabelValues(result).Inc()
}
