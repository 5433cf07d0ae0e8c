package models

import (
	"encoding/json"
	"time"
)

// NotificationType тип уведомления.
type NotificationType string

// Типы уведомлений.
const (
	NotificationExpiryWarning       NotificationType = "SUBSCRIPTION_EXPIRY_WARNING"
	NotificationExpired             NotificationType = "SUBSCRIPTION_EXPIRED"
	NotificationPaymentSuccess      NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed       NotificationType = "PAYMENT_FAILED"
	NotificationDeviceLimitExceeded NotificationType = "DEVICE_LIMIT_EXCEEDED"
)

// Notification сообщение пользователю о событии жизненного цикла.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      json.RawMessage  `json:"data,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotificationEvent событие для рассылки уведомления по почте.
type NotificationEvent struct {
	NotificationID string           `json:"notificationId"`
	UserID         string           `json:"userId"`
	Email          string           `json:"email"`
	Name           string           `json:"name"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	CreatedAt      time.Time        `json:"createdAt"`
}
