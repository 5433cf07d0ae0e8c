// Package subscription отдаёт состояние подписки пользователя и общую статистику.
package subscription

import (
	"context"
	"fmt"
	"math"

	"github.com/juju/clock"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// Repository источник данных о пользователях и устройствах.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CountActiveDevices(ctx context.Context, userID string) (int, error)
	PublicStats(ctx context.Context) (*models.PublicStats, error)
}

// SubscriptionService сервис чтения подписки.
type SubscriptionService struct {
	repo  Repository
	clock clock.Clock
}

// NewSubscriptionService создает сервис.
func NewSubscriptionService(repo Repository, clk clock.Clock) *SubscriptionService {
	return &SubscriptionService{repo: repo, clock: clk}
}

// Current возвращает текущий план пользователя, срок действия и использование устройств.
// daysLeft округляется вверх и не бывает отрицательным.
func (s *SubscriptionService) Current(ctx context.Context, userID string) (*models.SubscriptionStatus, error) {
	const op = "services.subscription.Current"
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	used, err := s.repo.CountActiveDevices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st := &models.SubscriptionStatus{
		Plan:        user.Plan,
		Expiry:      user.SubscriptionExpiry,
		DevicesUsed: used,
	}
	if user.Plan != nil {
		st.DeviceLimit = user.Plan.DeviceLimit
	}
	if user.SubscriptionExpiry != nil {
		left := user.SubscriptionExpiry.Sub(s.clock.Now())
		st.IsExpired = left <= 0
		if left > 0 {
			st.DaysLeft = int(math.Ceil(left.Hours() / 24))
		}
	}
	return st, nil
}

// PublicStats общая статистика для главной страницы.
func (s *SubscriptionService) PublicStats(ctx context.Context) (*models.PublicStats, error) {
	const op = "services.subscription.PublicStats"
	st, err := s.repo.PublicStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}
