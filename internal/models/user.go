// Package models содержит доменные структуры сервиса: пользователей, тарифные планы,
// устройства, заказы и уведомления. Структуры используются в бизнес‑логике,
// хранилище и в JSON‑ответах HTTP‑обработчиков.
package models

import "time"

const (
	// RoleUser роль обычного пользователя
	RoleUser = "user"
	// RoleAdmin роль администратора
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Role               string     `json:"role"`
	PlanID             string     `json:"subscriptionId"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry,omitempty"`
	TraccarUserID      *int64     `json:"traccarUserId,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	Plan               *Plan      `json:"subscription,omitempty"` // Текущий тариф, заполняется при чтении с join
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary краткие сведения о пользователе для списков и статистики.
type UserSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ExpiringUser пользователь, чья подписка истекла или скоро истечёт.
type ExpiringUser struct {
	ID                 string
	Name               string
	Email              string
	PlanID             string
	PlanName           string
	SubscriptionExpiry time.Time
}

// SubscriptionStatus текущее состояние подписки пользователя.
type SubscriptionStatus struct {
	Plan        *Plan      `json:"subscription"`
	Expiry      *time.Time `json:"subscriptionExpiry,omitempty"`
	IsExpired   bool       `json:"isExpired"`
	DaysLeft    int        `json:"daysLeft"`
	DevicesUsed int        `json:"devicesUsed"`
	DeviceLimit int        `json:"deviceLimit"`
}

// PublicStats общая статистика для главной страницы.
type PublicStats struct {
	TotalUsers   int `json:"totalUsers"`
	TotalDevices int `json:"totalDevices"`
	ActivePlans  int `json:"activePlans"`
}
