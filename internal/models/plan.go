package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan тарифный план каталога.
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeviceLimit  int             `json:"deviceLimit"`
	DurationDays int             `json:"durationDays"`
	Features     []string        `json:"features"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// IsFree сообщает, что план не требует оплаты.
func (p *Plan) IsFree() bool {
	return p.Price.IsZero()
}

// ExpiryFrom возвращает дату окончания подписки, начатой в момент now.
func (p *Plan) ExpiryFrom(now time.Time) time.Time {
	return now.Add(time.Duration(p.DurationDays) * 24 * time.Hour)
}

// PlanCreate данные для создания плана.
type PlanCreate struct {
	Name         string          `json:"name" validate:"required,min=1,max=50"`
	Price        decimal.Decimal `json:"price" validate:"gte=0"`
	DeviceLimit  int             `json:"deviceLimit" validate:"required,gte=1"`
	DurationDays int             `json:"durationDays" validate:"required,gte=1"`
	Features     []string        `json:"features" validate:"omitempty,dive,required,max=200"`
	IsActive     *bool           `json:"isActive"`
}

// PlanUpdate частичное обновление плана: nil означает "не менять".
type PlanUpdate struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=50"`
	Price        *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	DeviceLimit  *int             `json:"deviceLimit" validate:"omitempty,gte=1"`
	DurationDays *int             `json:"durationDays" validate:"omitempty,gte=1"`
	Features     *[]string        `json:"features"`
	IsActive     *bool            `json:"isActive"`
}

// IsEmpty сообщает, что в обновлении нет ни одного поля.
func (u PlanUpdate) IsEmpty() bool {
	return u.Name == nil && u.Price == nil && u.DeviceLimit == nil &&
		u.DurationDays == nil && u.Features == nil && u.IsActive == nil
}

// PlanStats статистика по плану для администратора.
type PlanStats struct {
	Plan            *Plan           `json:"subscription"`
	TotalUsers      int             `json:"totalUsers"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TotalOrders     int             `json:"totalOrders"`
	CompletedOrders int             `json:"completedOrders"`
	PendingOrders   int             `json:"pendingOrders"`
	RecentUsers     []UserSummary   `json:"recentUsers"`
	RecentOrders    []*Order        `json:"recentOrders"`
}
