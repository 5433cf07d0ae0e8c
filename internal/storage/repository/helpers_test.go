package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/tracker-saas/internal/migrations"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции проекта
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err, "failed to connect storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// Plan возвращает план из начальных данных по имени
func (f *TestDataFactory) Plan(t *testing.T, name string) *models.Plan {
	p, err := f.storage.GetPlanByName(context.Background(), name)
	require.NoError(t, err)
	return p
}

// CreateUser создает пользователя на плане planName с датой окончания expiry
func (f *TestDataFactory) CreateUser(t *testing.T, email, planName string, expiry time.Time) *models.User {
	u := &models.User{
		ID:                 uuid.NewString(),
		Name:               "Test User",
		Email:              email,
		PasswordHash:       "hash",
		Role:               models.RoleUser,
		PlanID:             f.Plan(t, planName).ID,
		SubscriptionExpiry: &expiry,
	}
	require.NoError(t, f.storage.CreateUser(context.Background(), u))
	return u
}

// CreateOrder создает заказ в заданном статусе
func (f *TestDataFactory) CreateOrder(t *testing.T, userID, planName string, status models.OrderStatus) *models.Order {
	p := f.Plan(t, planName)
	o := &models.Order{
		ID:       uuid.NewString(),
		UserID:   userID,
		PlanID:   p.ID,
		Amount:   p.Price,
		Currency: models.DefaultCurrency,
		Status:   status,
	}
	require.NoError(t, f.storage.CreateOrder(context.Background(), o))
	return o
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// OrderStatus возвращает текущий статус заказа
func (v *TestVerification) OrderStatus(t *testing.T, orderID string) models.OrderStatus {
	var status string
	require.NoError(t, v.storage.DB.QueryRow("SELECT status FROM orders WHERE id = $1", orderID).Scan(&status))
	return models.OrderStatus(status)
}

// UserSubscription возвращает план и дату окончания подписки пользователя
func (v *TestVerification) UserSubscription(t *testing.T, userID string) (string, time.Time) {
	var (
		planID string
		expiry time.Time
	)
	require.NoError(t, v.storage.DB.QueryRow("SELECT plan_id, subscription_expiry FROM users WHERE id = $1", userID).
		Scan(&planID, &expiry))
	return planID, expiry
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
