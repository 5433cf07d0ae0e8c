// Package traccar клиент REST API платформы GPS-трекинга Traccar.
package traccar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// ErrUnavailable платформа трекинга не настроена или вернула ошибку.
var ErrUnavailable = errors.New("tracking platform unavailable")

// Client клиент API Traccar с basic-авторизацией сервисной учётной записи
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

type userRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Administrator bool   `json:"administrator"`
	Readonly      bool   `json:"readonly"`
	Disabled      bool   `json:"disabled"`
}

type deviceRequest struct {
	Name     string `json:"name"`
	UniqueID string `json:"uniqueId"`
	Disabled bool   `json:"disabled"`
}

type routeRequest struct {
	Type      string  `json:"type"`
	DeviceIDs []int64 `json:"deviceIds"`
	From      string  `json:"from"`
	To        string  `json:"to"`
}

type entity struct {
	ID int64 `json:"id"`
}

// NewClient создаёт клиент по настройкам конфига
func NewClient(cfg config.Traccar) *Client {
	timeout := cfg.TraccarTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.TraccarURL, "/"),
		username:   cfg.TraccarUsername,
		password:   cfg.TraccarPassword,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: api url is not configured", ErrUnavailable)
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// CreateUser заводит пользователя на платформе и возвращает его id
func (c *Client) CreateUser(ctx context.Context, name, email, password string) (int64, error) {
	const op = "traccar.CreateUser"
	req, err := c.newRequest(ctx, http.MethodPost, "/users", userRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var created entity
	if err := c.do(req, &created); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return created.ID, nil
}

// CreateDevice регистрирует устройство по IMEI и возвращает его id на платформе
func (c *Client) CreateDevice(ctx context.Context, name, imei string) (int64, error) {
	const op = "traccar.CreateDevice"
	req, err := c.newRequest(ctx, http.MethodPost, "/devices", deviceRequest{Name: name, UniqueID: imei})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var created entity
	if err := c.do(req, &created); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return created.ID, nil
}

// Positions возвращает последние позиции устройства
func (c *Client) Positions(ctx context.Context, deviceID int64) ([]models.Position, error) {
	const op = "traccar.Positions"
	q := url.Values{"deviceId": {strconv.FormatInt(deviceID, 10)}}
	req, err := c.newRequest(ctx, http.MethodGet, "/positions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	positions := make([]models.Position, 0)
	if err := c.do(req, &positions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return positions, nil
}

// Route возвращает трек устройства за период [from, to]
func (c *Client) Route(ctx context.Context, deviceID int64, from, to time.Time) ([]models.Position, error) {
	const op = "traccar.Route"
	req, err := c.newRequest(ctx, http.MethodPost, "/reports/route", routeRequest{
		Type:      "route",
		DeviceIDs: []int64{deviceID},
		From:      from.UTC().Format(time.RFC3339),
		To:        to.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	positions := make([]models.Position, 0)
	if err := c.do(req, &positions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return positions, nil
}
