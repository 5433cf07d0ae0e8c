package telebirr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// DecodePayload разбирает тело уведомления в map, сохраняя числа в исходном виде.
func DecodePayload(body []byte) (map[string]any, error) {
	const op = "telebirr.DecodePayload"
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrInvalidNotification, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%s: %w: empty body", op, models.ErrInvalidNotification)
	}
	return payload, nil
}

// ParseNotification извлекает поля уведомления. merchantOrderId, totalAmount и
// tradeStatus обязательны.
func ParseNotification(payload map[string]any) (*Notification, error) {
	const op = "telebirr.ParseNotification"

	n := &Notification{
		MerchantOrderID: stringField(payload, "merchantOrderId"),
		OutTradeNo:      stringField(payload, "outTradeNo"),
		Currency:        stringField(payload, "currency"),
		TradeStatus:     stringField(payload, "tradeStatus"),
		Timestamp:       stringField(payload, "timestamp"),
	}
	if n.MerchantOrderID == "" || n.TradeStatus == "" {
		return nil, fmt.Errorf("%s: %w: merchantOrderId and tradeStatus are required", op, models.ErrInvalidNotification)
	}

	rawAmount := stringField(payload, "totalAmount")
	if rawAmount == "" {
		return nil, fmt.Errorf("%s: %w: totalAmount is required", op, models.ErrInvalidNotification)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rawAmount))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: totalAmount: %w", op, models.ErrInvalidNotification, err)
	}
	n.TotalAmount = amount
	return n, nil
}

func stringField(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return formatValue(v)
}
