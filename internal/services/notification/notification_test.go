package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateNotification(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *RepoMock) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *RepoMock) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) MarkNotificationRead(ctx context.Context, userID, id string) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var alice = Recipient{ID: "u-1", Name: "Alice", Email: "alice@example.com"}

func TestNotificationService_Helpers(t *testing.T) {
	tests := []struct {
		name        string
		call        func(s *NotificationService)
		wantType    models.NotificationType
		wantTitle   string
		wantMessage string
		wantData    string
	}{
		{
			name: "payment success",
			call: func(s *NotificationService) {
				s.PaymentSuccess(context.Background(), alice, "Basic", decimal.RequireFromString("19.99"))
			},
			wantType:    models.NotificationPaymentSuccess,
			wantTitle:   "Payment Successful",
			wantMessage: "Your payment of 19.99 ETB for Basic plan has been processed successfully.",
			wantData:    `{"planName":"Basic","amount":"19.99"}`,
		},
		{
			name: "payment failed",
			call: func(s *NotificationService) {
				s.PaymentFailed(context.Background(), alice, "Premium", decimal.NewFromInt(500))
			},
			wantType:    models.NotificationPaymentFailed,
			wantTitle:   "Payment Failed",
			wantMessage: "Your payment of 500 ETB for Premium plan could not be processed. Please try again.",
			wantData:    `{"planName":"Premium","amount":"500"}`,
		},
		{
			name:        "subscription expired",
			call:        func(s *NotificationService) { s.SubscriptionExpired(context.Background(), alice, "Basic", "Free") },
			wantType:    models.NotificationExpired,
			wantTitle:   "Subscription Expired",
			wantMessage: "Your Basic subscription has expired. You have been moved to the Free plan.",
			wantData:    `{"planName":"Basic"}`,
		},
		{
			name:        "expiry warning",
			call:        func(s *NotificationService) { s.ExpiryWarning(context.Background(), alice, 3, "Premium") },
			wantType:    models.NotificationExpiryWarning,
			wantTitle:   "Subscription Expiring Soon",
			wantMessage: "Your Premium subscription will expire in 3 days. Please renew to continue using all features.",
			wantData:    `{"daysLeft":3,"planName":"Premium"}`,
		},
		{
			name:      "device limit",
			call:      func(s *NotificationService) { s.DeviceLimitExceeded(context.Background(), alice, 5) },
			wantType:  models.NotificationDeviceLimitExceeded,
			wantTitle: "Device Limit Exceeded",
			wantData:  `{"currentLimit":5}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			pub := new(PublisherMock)

			var saved *models.Notification
			repo.On("CreateNotification", mock.Anything, mock.AnythingOfType("*models.Notification")).
				Run(func(args mock.Arguments) { saved = args.Get(1).(*models.Notification) }).
				Return(nil).Once()
			pub.On("Publish", mock.Anything, "email", mock.MatchedBy(func(e models.NotificationEvent) bool {
				return e.Email == alice.Email && e.Type == tt.wantType && e.Title == tt.wantTitle
			})).Return(nil).Once()

			tt.call(NewNotificationService(repo, pub, newNoopLogger()))

			require.NotNil(t, saved)
			assert.NotEmpty(t, saved.ID)
			assert.Equal(t, alice.ID, saved.UserID)
			assert.Equal(t, tt.wantType, saved.Type)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, saved.Message)
			}
			assert.JSONEq(t, tt.wantData, string(saved.Data))
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestNotificationService_Notify_BestEffort(t *testing.T) {
	t.Run("repository error skips publish", func(t *testing.T) {
		repo := new(RepoMock)
		pub := new(PublisherMock)
		repo.On("CreateNotification", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		assert.NotPanics(t, func() {
			NewNotificationService(repo, pub, newNoopLogger()).PaymentSuccess(context.Background(), alice, "Basic", decimal.NewFromInt(1))
		})
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publish error is swallowed", func(t *testing.T) {
		repo := new(RepoMock)
		pub := new(PublisherMock)
		repo.On("CreateNotification", mock.Anything, mock.Anything).Return(nil).Once()
		pub.On("Publish", mock.Anything, "email", mock.Anything).Return(errors.New("broker down")).Once()

		NewNotificationService(repo, pub, newNoopLogger()).SubscriptionExpired(context.Background(), alice, "Basic", "Free")
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("nil publisher only writes the log", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("CreateNotification", mock.Anything, mock.Anything).Return(nil).Once()

		NewNotificationService(repo, nil, newNoopLogger()).DeviceLimitExceeded(context.Background(), alice, 1)
		repo.AssertExpectations(t)
	})
}

func TestNotificationService_List(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		wantLimit  int
		setupMocks func(r *RepoMock, limit int)
		wantUnread int
		wantErr    bool
	}{
		{
			name:      "default limit",
			limit:     0,
			wantLimit: 20,
			setupMocks: func(r *RepoMock, limit int) {
				r.On("ListNotifications", mock.Anything, "u-1", limit).Return([]*models.Notification{{ID: "n-1"}}, nil).Once()
				r.On("CountUnreadNotifications", mock.Anything, "u-1").Return(1, nil).Once()
			},
			wantUnread: 1,
		},
		{
			name:      "limit capped",
			limit:     1000,
			wantLimit: 100,
			setupMocks: func(r *RepoMock, limit int) {
				r.On("ListNotifications", mock.Anything, "u-1", limit).Return([]*models.Notification{}, nil).Once()
				r.On("CountUnreadNotifications", mock.Anything, "u-1").Return(0, nil).Once()
			},
		},
		{
			name:      "repository error",
			limit:     5,
			wantLimit: 5,
			setupMocks: func(r *RepoMock, limit int) {
				r.On("ListNotifications", mock.Anything, "u-1", limit).Return(nil, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo, tt.wantLimit)

			_, unread, err := NewNotificationService(repo, nil, newNoopLogger()).List(context.Background(), "u-1", tt.limit)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUnread, unread)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	repo := new(RepoMock)
	repo.On("MarkNotificationRead", mock.Anything, "u-1", "n-1").Return(true, nil).Once()
	repo.On("MarkNotificationRead", mock.Anything, "u-1", "n-2").Return(false, nil).Once()
	repo.On("MarkAllNotificationsRead", mock.Anything, "u-1").Return(int64(3), nil).Once()
	svc := NewNotificationService(repo, nil, newNoopLogger())

	require.NoError(t, svc.MarkRead(context.Background(), "u-1", "n-1"))
	require.ErrorIs(t, svc.MarkRead(context.Background(), "u-1", "n-2"), models.ErrNotificationNotFound)

	n, err := svc.MarkAllRead(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
