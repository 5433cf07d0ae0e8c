// Package auth регистрирует пользователей и выдаёт токены доступа.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/jwt"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/password"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetTraccarUserID(ctx context.Context, userID string, traccarID int64) error
	CountActiveDevices(ctx context.Context, userID string) (int, error)
}

// PlanRepository нужен для назначения плана по умолчанию.
type PlanRepository interface {
	GetPlanByName(ctx context.Context, name string) (*models.Plan, error)
}

// TrackingPlatform учётные записи на платформе трекинга.
type TrackingPlatform interface {
	CreateUser(ctx context.Context, name, email, password string) (int64, error)
}

// Result токен и профиль после регистрации или входа.
type Result struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Profile профиль текущего пользователя.
type Profile struct {
	*models.User
	DeviceCount int `json:"deviceCount"`
}

// AuthService отвечает за регистрацию, вход и профиль пользователя.
type AuthService struct {
	users       UserRepository
	plans       PlanRepository
	tracker     TrackingPlatform
	jwtMaker    jwt.Maker
	clock       clock.Clock
	defaultPlan string
	log         *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService. tracker может быть nil.
func NewAuthService(users UserRepository, plans PlanRepository, tracker TrackingPlatform, jwtMaker jwt.Maker,
	clk clock.Clock, defaultPlan string, log *slog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		plans:       plans,
		tracker:     tracker,
		jwtMaker:    jwtMaker,
		clock:       clk,
		defaultPlan: defaultPlan,
		log:         log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает пользователя на плане по умолчанию и возвращает токен.
// Учётная запись на платформе трекинга создаётся без гарантий: ошибка только логируется.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*Result, error) {
	const op = "services.auth.Register"
	email = normalizeEmail(email)

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserExists)
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plan, err := s.plans.GetPlanByName(ctx, s.defaultPlan)
	if err != nil {
		return nil, fmt.Errorf("%s: default plan %q: %w", op, s.defaultPlan, err)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	expiry := plan.ExpiryFrom(s.clock.Now().UTC())
	user := &models.User{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(name),
		Email:              email,
		PasswordHash:       hashed,
		Role:               models.RoleUser,
		PlanID:             plan.ID,
		SubscriptionExpiry: &expiry,
		Plan:               plan,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.linkTrackingAccount(ctx, user, rawPassword)

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_id", user.ID))
	return &Result{Token: token, User: user}, nil
}

func (s *AuthService) linkTrackingAccount(ctx context.Context, user *models.User, rawPassword string) {
	if s.tracker == nil {
		return
	}
	log := s.log.With(slog.String("user_id", user.ID))
	traccarID, err := s.tracker.CreateUser(ctx, user.Name, user.Email, rawPassword)
	if err != nil {
		log.Warn("failed to create tracking platform user", sl.Err(err))
		return
	}
	if err := s.users.SetTraccarUserID(ctx, user.ID, traccarID); err != nil {
		log.Warn("failed to save tracking platform user id", sl.Err(err))
		return
	}
	user.TraccarUserID = &traccarID
}

// Login проверяет пароль и выдаёт токен. Неизвестный email и неверный пароль
// неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Result, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Result{Token: token, User: user}, nil
}

// Me возвращает профиль пользователя с числом активных устройств.
func (s *AuthService) Me(ctx context.Context, userID string) (*Profile, error) {
	const op = "services.auth.Me"
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	count, err := s.users.CountActiveDevices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Profile{User: user, DeviceCount: count}, nil
}
