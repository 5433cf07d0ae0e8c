package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus статус заказа.
type OrderStatus string

// Статусы заказа.
const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderFailed     OrderStatus = "FAILED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// DefaultCurrency валюта заказов.
const DefaultCurrency = "ETB"

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderFailed, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderFailed},
}

// CanTransitionTo проверяет, допустим ли переход из текущего статуса в next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Valid сообщает, что статус известен.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderFailed, OrderCancelled:
		return true
	}
	return false
}

// Order запись о попытке покупки тарифного плана.
type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	PlanID     string          `json:"subscriptionId"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Status     OrderStatus     `json:"status"`
	PaymentRef *string         `json:"paymentRef,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Plan       *Plan           `json:"subscription,omitempty"`
	User       *UserSummary    `json:"user,omitempty"`
}

// PaymentHandle данные для перехода пользователя к оплате.
type PaymentHandle struct {
	CheckoutURL string `json:"checkoutUrl"`
	PrepayID    string `json:"prepayId"`
}

// Pagination параметры страницы выборки.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"totalCount"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination считает параметры страницы по общему числу записей.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// OrderPage страница заказов.
type OrderPage struct {
	Orders     []*Order   `json:"orders"`
	Pagination Pagination `json:"pagination"`
}
