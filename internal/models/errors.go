package models

import (
	"errors"
	"fmt"
)

// Ошибки предметной области. HTTP-слой сопоставляет их со статусами ответа.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrPlanNameExists       = errors.New("plan name already exists")
	ErrPlanInUse            = errors.New("cannot delete plan with active users or orders")
	ErrDeviceNotFound       = errors.New("device not found")
	ErrIMEIExists           = errors.New("device with this IMEI already exists")
	ErrDeviceNotLinked      = errors.New("device is not linked to tracking platform")
	ErrOrderNotFound        = errors.New("order not found")
	ErrPendingOrderNotFound = errors.New("pending order not found")
	ErrAlreadySubscribed    = errors.New("you already have this subscription plan")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrAmountMismatch       = errors.New("amount mismatch")
	ErrInvalidNotification  = errors.New("invalid payment notification")
	ErrDeviceLimit          = errors.New("device limit reached")
	ErrPaymentInitiation    = errors.New("payment initiation failed")
	ErrTransitionNotAllowed = errors.New("order status transition not allowed")
	// ErrOrderNotReady заказ ещё ждёт ответа шлюза, уведомление нужно прислать повторно.
	ErrOrderNotReady = errors.New("order is not ready for confirmation")
)

// DeviceLimitError ошибка превышения лимита устройств тарифа.
type DeviceLimitError struct {
	PlanName string
	Limit    int
}

func (e *DeviceLimitError) Error() string {
	return fmt.Sprintf("Device limit reached. Your %s plan allows %d devices.", e.PlanName, e.Limit)
}

// Unwrap позволяет сравнивать ошибку с ErrDeviceLimit через errors.Is.
func (e *DeviceLimitError) Unwrap() error {
	return ErrDeviceLimit
}
