package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/jwt"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/password"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) SetTraccarUserID(ctx context.Context, userID string, traccarID int64) error {
	return m.Called(ctx, userID, traccarID).Error(0)
}

func (m *UserRepoMock) CountActiveDevices(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type PlanRepoMock struct{ mock.Mock }

func (m *PlanRepoMock) GetPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type TrackerMock struct{ mock.Mock }

func (m *TrackerMock) CreateUser(ctx context.Context, name, email, password string) (int64, error) {
	args := m.Called(ctx, name, email, password)
	return args.Get(0).(int64), args.Error(1)
}

type JWTMakerMock struct{ mock.Mock }

func (m *JWTMakerMock) GenerateToken(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func (m *JWTMakerMock) ParseToken(token string) (*jwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.CustomClaims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var (
	now      = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	freePlan = &models.Plan{ID: "plan-free", Name: "Free", Price: decimal.Zero, DeviceLimit: 1, DurationDays: 365}
)

type mocks struct {
	users   *UserRepoMock
	plans   *PlanRepoMock
	tracker *TrackerMock
	jwt     *JWTMakerMock
}

func newService(m mocks) *AuthService {
	return NewAuthService(m.users, m.plans, m.tracker, m.jwt, testclock.NewClock(now), "Free", newNoopLogger())
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		setupMocks    func(m mocks)
		expectedError error
		wantTraccarID *int64
	}{
		{
			name:  "success with tracking account",
			email: "  Alice@Example.com ",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, models.ErrUserNotFound)
				m.plans.On("GetPlanByName", mock.Anything, "Free").Return(freePlan, nil)
				m.users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Email == "alice@example.com" && u.PlanID == "plan-free" && u.Role == models.RoleUser &&
						u.SubscriptionExpiry != nil && u.SubscriptionExpiry.Equal(now.AddDate(1, 0, 0)) &&
						password.CompareHash(u.PasswordHash, "secret123") == nil
				})).Return(nil)
				m.tracker.On("CreateUser", mock.Anything, "Alice", "alice@example.com", "secret123").Return(int64(42), nil)
				m.users.On("SetTraccarUserID", mock.Anything, mock.AnythingOfType("string"), int64(42)).Return(nil)
				m.jwt.On("GenerateToken", mock.AnythingOfType("string"), models.RoleUser).Return("token", nil)
			},
			wantTraccarID: func() *int64 { v := int64(42); return &v }(),
		},
		{
			name:  "tracking platform down does not fail registration",
			email: "alice@example.com",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, models.ErrUserNotFound)
				m.plans.On("GetPlanByName", mock.Anything, "Free").Return(freePlan, nil)
				m.users.On("CreateUser", mock.Anything, mock.Anything).Return(nil)
				m.tracker.On("CreateUser", mock.Anything, "Alice", "alice@example.com", "secret123").
					Return(int64(0), errors.New("connection refused"))
				m.jwt.On("GenerateToken", mock.AnythingOfType("string"), models.RoleUser).Return("token", nil)
			},
		},
		{
			name:  "email taken",
			email: "alice@example.com",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(&models.User{ID: "u-1"}, nil)
			},
			expectedError: models.ErrUserExists,
		},
		{
			name:  "email taken concurrently",
			email: "alice@example.com",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, models.ErrUserNotFound)
				m.plans.On("GetPlanByName", mock.Anything, "Free").Return(freePlan, nil)
				m.users.On("CreateUser", mock.Anything, mock.Anything).Return(models.ErrUserExists)
			},
			expectedError: models.ErrUserExists,
		},
		{
			name:  "default plan missing",
			email: "alice@example.com",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, models.ErrUserNotFound)
				m.plans.On("GetPlanByName", mock.Anything, "Free").Return(nil, models.ErrPlanNotFound)
			},
			expectedError: models.ErrPlanNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mocks{users: new(UserRepoMock), plans: new(PlanRepoMock), tracker: new(TrackerMock), jwt: new(JWTMakerMock)}
			tt.setupMocks(m)

			res, err := newService(m).Register(context.Background(), "Alice", tt.email, "secret123")

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "token", res.Token)
				assert.Equal(t, "alice@example.com", res.User.Email)
				assert.Equal(t, tt.wantTraccarID, res.User.TraccarUserID)
			}
			m.users.AssertExpectations(t)
			m.plans.AssertExpectations(t)
			m.tracker.AssertExpectations(t)
			m.jwt.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	stored := &models.User{ID: "u-1", Email: "alice@example.com", PasswordHash: hash, Role: models.RoleAdmin}

	tests := []struct {
		name          string
		password      string
		setupMocks    func(m mocks)
		expectedError error
	}{
		{
			name:     "success",
			password: "secret123",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
				m.jwt.On("GenerateToken", "u-1", models.RoleAdmin).Return("token", nil)
			},
		},
		{
			name:     "wrong password",
			password: "nope",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
			},
			expectedError: models.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			password: "secret123",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, models.ErrUserNotFound)
			},
			expectedError: models.ErrInvalidCredentials,
		},
		{
			name:     "storage error",
			password: "secret123",
			setupMocks: func(m mocks) {
				m.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, errors.New("db down"))
			},
			expectedError: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mocks{users: new(UserRepoMock), plans: new(PlanRepoMock), tracker: new(TrackerMock), jwt: new(JWTMakerMock)}
			tt.setupMocks(m)

			res, err := newService(m).Login(context.Background(), "ALICE@example.com", tt.password)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "token", res.Token)
				assert.Equal(t, "u-1", res.User.ID)
			}
			m.users.AssertExpectations(t)
			m.jwt.AssertExpectations(t)
		})
	}
}

func TestAuthService_Me(t *testing.T) {
	m := mocks{users: new(UserRepoMock), plans: new(PlanRepoMock), tracker: new(TrackerMock), jwt: new(JWTMakerMock)}
	m.users.On("GetUserByID", mock.Anything, "u-1").Return(&models.User{ID: "u-1", Plan: freePlan}, nil)
	m.users.On("CountActiveDevices", mock.Anything, "u-1").Return(2, nil)

	profile, err := newService(m).Me(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.DeviceCount)
	assert.Equal(t, "Free", profile.Plan.Name)

	m.users.On("GetUserByID", mock.Anything, "u-2").Return(nil, models.ErrUserNotFound)
	_, err = newService(m).Me(context.Background(), "u-2")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
