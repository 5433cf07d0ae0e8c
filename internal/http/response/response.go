// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Успешный ответ всегда содержит
// "success": true и поля полезной нагрузки на верхнем уровне, ошибка содержит
// "success": false и текст в поле "error".
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// Payload поля успешного ответа.
type Payload map[string]any

// ErrorResponse структура ошибки, также используется в аннотациях @Failure.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"invalid request body"`
}

// MessageResponse успешный ответ только с сообщением.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Device deleted successfully"`
}

// OK возвращает тело успешного ответа с полями payload.
func OK(payload Payload) Payload {
	out := make(Payload, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["success"] = true
	return out
}

// Message возвращает успешный ответ с сообщением.
func Message(msg string) MessageResponse {
	return MessageResponse{Success: true, Message: msg}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Error: msg}
}

// Fail записывает ответ с ошибкой и статусом status.
func Fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// ValidationError формирует ответ на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min", "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max", "lte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		case "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be exactly %s characters", err.Field(), err.Param()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "url":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid url", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}

// Invalid отвечает 422 на ошибку валидации.
func Invalid(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	render.Status(r, http.StatusUnprocessableEntity)
	if errors.As(err, &verrs) {
		render.JSON(w, r, ValidationError(verrs))
		return
	}
	render.JSON(w, r, Error("validation failed"))
}

// statusByError сопоставление ошибок предметной области с HTTP-статусом и текстом.
var statusByError = []struct {
	err    error
	status int
	msg    string
}{
	{models.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{models.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{models.ErrPlanNotFound, http.StatusNotFound, "Subscription plan not found"},
	{models.ErrPlanNameExists, http.StatusBadRequest, "Plan name already exists"},
	{models.ErrPlanInUse, http.StatusBadRequest, "Cannot delete plan with active users or orders"},
	{models.ErrDeviceNotFound, http.StatusNotFound, "Device not found"},
	{models.ErrDeviceNotLinked, http.StatusNotFound, "Device not found or not connected to Traccar"},
	{models.ErrIMEIExists, http.StatusBadRequest, "Device with this IMEI already exists"},
	{models.ErrPendingOrderNotFound, http.StatusNotFound, "Pending order not found"},
	{models.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{models.ErrAlreadySubscribed, http.StatusBadRequest, "You already have this subscription plan"},
	{models.ErrNotificationNotFound, http.StatusNotFound, "Notification not found"},
	{models.ErrInvalidSignature, http.StatusBadRequest, "Invalid signature"},
	{models.ErrAmountMismatch, http.StatusBadRequest, "Amount mismatch"},
	{models.ErrOrderNotReady, http.StatusConflict, "Order is not ready for confirmation"},
	{models.ErrInvalidNotification, http.StatusBadRequest, "Invalid notification"},
	{models.ErrPaymentInitiation, http.StatusBadRequest, "Payment creation failed"},
}

// StatusFor возвращает HTTP-статус и сообщение для ошибки. Неизвестные ошибки
// дают 500 и fallback.
func StatusFor(err error, fallback string) (int, string) {
	var limitErr *models.DeviceLimitError
	if errors.As(err, &limitErr) {
		return http.StatusBadRequest, limitErr.Error()
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status, m.msg
		}
	}
	return http.StatusInternalServerError, fallback
}

// FailWith отвечает ошибкой, статус которой выводится из err.
func FailWith(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := StatusFor(err, fallback)
	Fail(w, r, status, msg)
}
