package telebirr

import (
	"github.com/shopspring/decimal"
)

// Статусы платежа во входящем уведомлении шлюза.
const (
	TradeStatusSuccess = "SUCCESS"
	TradeStatusFailed  = "FAILED"
)

// SignatureField ключ подписи в теле уведомления.
const SignatureField = "signature"

// PaymentRequest данные заказа для создания платежа.
type PaymentRequest struct {
	MerchantOrderID string
	Amount          decimal.Decimal
	Subject         string
	ReturnURL       string
}

// initiateRequest тело запроса POST /payment/initiate.
type initiateRequest struct {
	AppKey          string `json:"appKey"`
	ShortCode       string `json:"shortCode"`
	NotifyURL       string `json:"notifyUrl"`
	ReturnURL       string `json:"returnUrl"`
	MerchantOrderID string `json:"merchantOrderId"`
	Amount          string `json:"amount"`
	Subject         string `json:"subject"`
}

// initiateResponse ответ шлюза на создание платежа.
type initiateResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Msg     string `json:"msg"`
	Error   string `json:"error"`
	Data    struct {
		PrepayID    string `json:"prepay_id"`
		CheckoutURL string `json:"checkoutUrl"`
	} `json:"data"`
}

// Notification разобранное уведомление о результате платежа.
type Notification struct {
	MerchantOrderID string
	OutTradeNo      string
	TotalAmount     decimal.Decimal
	Currency        string
	TradeStatus     string
	Timestamp       string
}
