// Package telebirr реализует клиент платёжного шлюза Telebirr и проверку
// подписи его уведомлений.
package telebirr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

const initiatePath = "/payment/initiate"

// Client клиент API шлюза
type Client struct {
	cfg        config.Telebirr
	httpClient *http.Client
}

// NewClient создаёт клиент шлюза с таймаутом запроса из конфига
func NewClient(cfg config.Telebirr) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.APIBaseURL, "/")+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Key", c.cfg.AppKey)
	req.Header.Set("App-Secret", c.cfg.AppSecret)
	return req, nil
}

// CreatePayment создаёт платёж и возвращает ссылку на оплату и prepay_id.
// Любой отказ шлюза оборачивает models.ErrPaymentInitiation.
func (c *Client) CreatePayment(ctx context.Context, p PaymentRequest) (*models.PaymentHandle, error) {
	const op = "telebirr.CreatePayment"

	returnURL := p.ReturnURL
	if returnURL == "" {
		returnURL = c.cfg.ReturnURL
	}
	req, err := c.newRequest(ctx, http.MethodPost, initiatePath, initiateRequest{
		AppKey:          c.cfg.AppKey,
		ShortCode:       c.cfg.ShortCode,
		NotifyURL:       c.cfg.NotifyURL,
		ReturnURL:       returnURL,
		MerchantOrderID: p.MerchantOrderID,
		Amount:          p.Amount.StringFixed(2),
		Subject:         p.Subject,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrPaymentInitiation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrPaymentInitiation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %w: unexpected status %s", op, models.ErrPaymentInitiation, resp.Status)
	}

	var out initiateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrPaymentInitiation, err)
	}
	if out.Data.PrepayID == "" {
		reason := out.Msg
		if reason == "" {
			reason = out.Error
		}
		return nil, fmt.Errorf("%s: %w: no prepay_id in response: %s", op, models.ErrPaymentInitiation, reason)
	}
	return &models.PaymentHandle{
		PrepayID:    out.Data.PrepayID,
		CheckoutURL: out.Data.CheckoutURL,
	}, nil
}
