package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) CountActiveDevices(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) PublicStats(ctx context.Context) (*models.PublicStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublicStats), args.Error(1)
}

func TestSubscriptionService_Current(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	plan := &models.Plan{ID: "p-basic", Name: "Basic", DeviceLimit: 5, DurationDays: 30}
	at := func(d time.Duration) *time.Time { v := now.Add(d); return &v }

	tests := []struct {
		name        string
		expiry      *time.Time
		wantExpired bool
		wantDays    int
	}{
		{name: "partial day rounds up", expiry: at(36 * time.Hour), wantDays: 2},
		{name: "exactly ten days", expiry: at(240 * time.Hour), wantDays: 10},
		{name: "expired", expiry: at(-time.Hour), wantExpired: true},
		{name: "expires now", expiry: at(0), wantExpired: true},
		{name: "no expiry", expiry: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetUserByID", mock.Anything, "u-1").Return(&models.User{ID: "u-1", Plan: plan, SubscriptionExpiry: tt.expiry}, nil)
			repo.On("CountActiveDevices", mock.Anything, "u-1").Return(3, nil)

			st, err := NewSubscriptionService(repo, testclock.NewClock(now)).Current(context.Background(), "u-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantExpired, st.IsExpired)
			assert.Equal(t, tt.wantDays, st.DaysLeft)
			assert.Equal(t, 3, st.DevicesUsed)
			assert.Equal(t, 5, st.DeviceLimit)
			assert.Equal(t, "Basic", st.Plan.Name)
		})
	}
}

func TestSubscriptionService_CurrentUnknownUser(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetUserByID", mock.Anything, "ghost").Return(nil, models.ErrUserNotFound)

	_, err := NewSubscriptionService(repo, testclock.NewClock(time.Now())).Current(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	repo.AssertNotCalled(t, "CountActiveDevices", mock.Anything, mock.Anything)
}
