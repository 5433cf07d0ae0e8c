package order

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
	"github.com/magabrotheeeer/tracker-saas/internal/services/notification"
	"github.com/magabrotheeeer/tracker-saas/internal/telebirr"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *RepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) UpdateSubscription(ctx context.Context, userID, planID string, expiry time.Time) error {
	return m.Called(ctx, userID, planID, expiry).Error(0)
}

func (m *RepoMock) CreateOrder(ctx context.Context, o *models.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *RepoMock) GetUserOrder(ctx context.Context, userID, id string) (*models.Order, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *RepoMock) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]*models.Order, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Order), args.Int(1), args.Error(2)
}

func (m *RepoMock) ListOrders(ctx context.Context, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Order), args.Int(1), args.Error(2)
}

func (m *RepoMock) TransitionOrder(ctx context.Context, id string, to models.OrderStatus, paymentRef *string, from ...models.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, to, paymentRef, from)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) CancelOrder(ctx context.Context, userID, id string) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreatePayment(ctx context.Context, p telebirr.PaymentRequest) (*models.PaymentHandle, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentHandle), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) PaymentSuccess(ctx context.Context, to notification.Recipient, planName string, amount decimal.Decimal) {
	m.Called(ctx, to, planName, amount)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var (
	now     = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	free    = &models.Plan{ID: "p-free", Name: "Free", Price: decimal.Zero, DeviceLimit: 1, DurationDays: 365, IsActive: true}
	premium = &models.Plan{ID: "p-premium", Name: "Premium", Price: decimal.NewFromInt(500), DeviceLimit: 25, DurationDays: 30, IsActive: true}
	alice   = &models.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", PlanID: "p-basic"}
)

func pendingOnly(from []models.OrderStatus) bool {
	return len(from) == 1 && from[0] == models.OrderPending
}

func TestOrderService_Create(t *testing.T) {
	prepay := "prepay-1"

	tests := []struct {
		name          string
		planID        string
		setupMocks    func(repo *RepoMock, gw *GatewayMock, n *NotifierMock)
		expectedError error
		wantPayment   bool
		wantMetric    string
	}{
		{
			name:   "free plan fast path",
			planID: "p-free",
			setupMocks: func(repo *RepoMock, _ *GatewayMock, n *NotifierMock) {
				repo.On("GetPlan", mock.Anything, "p-free").Return(free, nil)
				repo.On("GetUserByID", mock.Anything, "u-1").Return(alice, nil)
				repo.On("UpdateSubscription", mock.Anything, "u-1", "p-free", now.AddDate(1, 0, 0)).Return(nil)
				n.On("PaymentSuccess", mock.Anything, notification.Recipient{ID: "u-1", Name: "Alice", Email: "alice@example.com"},
					"Free", decimal.Zero).Return()
			},
			wantMetric: "free",
		},
		{
			name:   "paid plan goes to processing",
			planID: "p-premium",
			setupMocks: func(repo *RepoMock, gw *GatewayMock, _ *NotifierMock) {
				repo.On("GetPlan", mock.Anything, "p-premium").Return(premium, nil)
				repo.On("GetUserByID", mock.Anything, "u-1").Return(alice, nil)
				repo.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
					return o.Status == models.OrderPending && o.Amount.Equal(decimal.NewFromInt(500)) && o.Currency == "ETB"
				})).Return(nil)
				gw.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p telebirr.PaymentRequest) bool {
					return p.Subject == "Premium Plan Subscription" && p.ReturnURL == "https://app/return" && p.MerchantOrderID != ""
				})).Return(&models.PaymentHandle{PrepayID: prepay, CheckoutURL: "https://pay/checkout"}, nil)
				repo.On("TransitionOrder", mock.Anything, mock.AnythingOfType("string"), models.OrderProcessing,
					mock.MatchedBy(func(ref *string) bool { return ref != nil && *ref == prepay }),
					mock.MatchedBy(pendingOnly)).Return(true, nil)
			},
			wantPayment: true,
			wantMetric:  "processing",
		},
		{
			name:   "gateway rejection marks order failed",
			planID: "p-premium",
			setupMocks: func(repo *RepoMock, gw *GatewayMock, _ *NotifierMock) {
				repo.On("GetPlan", mock.Anything, "p-premium").Return(premium, nil)
				repo.On("GetUserByID", mock.Anything, "u-1").Return(alice, nil)
				repo.On("CreateOrder", mock.Anything, mock.Anything).Return(nil)
				gw.On("CreatePayment", mock.Anything, mock.Anything).Return(nil, models.ErrPaymentInitiation)
				repo.On("TransitionOrder", mock.Anything, mock.AnythingOfType("string"), models.OrderFailed,
					(*string)(nil), mock.MatchedBy(pendingOnly)).Return(true, nil)
			},
			expectedError: models.ErrPaymentInitiation,
			wantMetric:    "failed",
		},
		{
			name:   "already on plan",
			planID: "p-basic",
			setupMocks: func(repo *RepoMock, _ *GatewayMock, _ *NotifierMock) {
				repo.On("GetPlan", mock.Anything, "p-basic").Return(&models.Plan{ID: "p-basic", IsActive: true, Price: decimal.NewFromInt(20)}, nil)
				repo.On("GetUserByID", mock.Anything, "u-1").Return(alice, nil)
			},
			expectedError: models.ErrAlreadySubscribed,
		},
		{
			name:   "inactive plan",
			planID: "p-old",
			setupMocks: func(repo *RepoMock, _ *GatewayMock, _ *NotifierMock) {
				repo.On("GetPlan", mock.Anything, "p-old").Return(&models.Plan{ID: "p-old", IsActive: false}, nil)
			},
			expectedError: models.ErrPlanNotFound,
		},
		{
			name:   "cancelled while gateway was called",
			planID: "p-premium",
			setupMocks: func(repo *RepoMock, gw *GatewayMock, _ *NotifierMock) {
				repo.On("GetPlan", mock.Anything, "p-premium").Return(premium, nil)
				repo.On("GetUserByID", mock.Anything, "u-1").Return(alice, nil)
				repo.On("CreateOrder", mock.Anything, mock.Anything).Return(nil)
				gw.On("CreatePayment", mock.Anything, mock.Anything).Return(&models.PaymentHandle{PrepayID: prepay}, nil)
				repo.On("TransitionOrder", mock.Anything, mock.AnythingOfType("string"), models.OrderProcessing,
					mock.Anything, mock.MatchedBy(pendingOnly)).Return(false, nil)
			},
			expectedError: models.ErrPendingOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, gw, n := new(RepoMock), new(GatewayMock), new(NotifierMock)
			tt.setupMocks(repo, gw, n)
			reg := prometheus.NewRegistry()
			s := NewOrderService(repo, gw, n, metrics.New(reg), testclock.NewClock(now), newNoopLogger())

			res, err := s.Create(context.Background(), "u-1", tt.planID, "https://app/return")

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPayment, res.RequiresPayment)
				if tt.wantPayment {
					assert.Equal(t, models.OrderProcessing, res.Order.Status)
					assert.Equal(t, prepay, *res.Order.PaymentRef)
					assert.Equal(t, "https://pay/checkout", res.Payment.CheckoutURL)
				} else {
					assert.Nil(t, res.Order)
				}
			}
			if tt.wantMetric != "" {
				expected := `
# HELP tracker_orders_created_total Subscription orders by result.
# TYPE tracker_orders_created_total counter
tracker_orders_created_total{result="` + tt.wantMetric + `"} 1
`
				assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tracker_orders_created_total"))
			}
			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
			n.AssertExpectations(t)
		})
	}
}

func TestOrderService_Cancel(t *testing.T) {
	repo := new(RepoMock)
	repo.On("CancelOrder", mock.Anything, "u-1", "o-pending").Return(true, nil)
	repo.On("CancelOrder", mock.Anything, "u-1", "o-processing").Return(false, nil)
	repo.On("CancelOrder", mock.Anything, "u-1", "o-broken").Return(false, errors.New("db down"))
	s := NewOrderService(repo, nil, nil, nil, testclock.NewClock(now), newNoopLogger())

	require.NoError(t, s.Cancel(context.Background(), "u-1", "o-pending"))
	assert.ErrorIs(t, s.Cancel(context.Background(), "u-1", "o-processing"), models.ErrPendingOrderNotFound)
	assert.Error(t, s.Cancel(context.Background(), "u-1", "o-broken"))
}

func TestOrderService_History(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantLimit  int
		wantOffset int
		total      int
		want       models.Pagination
	}{
		{
			name: "defaults", page: 0, limit: 0, wantLimit: 10, wantOffset: 0, total: 25,
			want: models.Pagination{Page: 1, Limit: 10, TotalCount: 25, TotalPages: 3, HasNext: true},
		},
		{
			name: "last page", page: 3, limit: 10, wantLimit: 10, wantOffset: 20, total: 25,
			want: models.Pagination{Page: 3, Limit: 10, TotalCount: 25, TotalPages: 3, HasPrev: true},
		},
		{
			name: "limit capped", page: 1, limit: 1000, wantLimit: 100, wantOffset: 0, total: 0,
			want: models.Pagination{Page: 1, Limit: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("ListUserOrders", mock.Anything, "u-1", tt.wantLimit, tt.wantOffset).Return([]*models.Order{}, tt.total, nil)

			page, err := NewOrderService(repo, nil, nil, nil, testclock.NewClock(now), newNoopLogger()).
				History(context.Background(), "u-1", tt.page, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Pagination)
			repo.AssertExpectations(t)
		})
	}
}

func TestOrderService_AdminList(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListOrders", mock.Anything, models.OrderCompleted, 10, 0).Return([]*models.Order{{ID: "o-1"}}, 1, nil)
	s := NewOrderService(repo, nil, nil, nil, testclock.NewClock(now), newNoopLogger())

	page, err := s.AdminList(context.Background(), models.OrderCompleted, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Orders, 1)

	_, err = s.AdminList(context.Background(), models.OrderStatus("BOGUS"), 1, 10)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
