// Package plan управляет каталогом тарифных планов.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// ActivePlansKey ключ кэша со списком активных планов.
const ActivePlansKey = "plans:active"

// Repository хранилище планов.
type Repository interface {
	ListActivePlans(ctx context.Context) ([]*models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	CreatePlan(ctx context.Context, p *models.Plan) error
	UpdatePlan(ctx context.Context, id string, upd models.PlanUpdate) (*models.Plan, error)
	DeletePlan(ctx context.Context, id string) error
	PlanStats(ctx context.Context, id string) (*models.PlanStats, error)
}

// Cache кэш списка планов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// PlanService бизнес-логика каталога планов.
type PlanService struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewPlanService создает сервис. cache может быть nil, тогда список читается из базы.
func NewPlanService(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *PlanService {
	return &PlanService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// ListActive возвращает активные планы по возрастанию цены.
// Ошибки Redis не прерывают запрос.
func (s *PlanService) ListActive(ctx context.Context) ([]*models.Plan, error) {
	const op = "services.plan.ListActive"
	log := s.log.With(slog.String("op", op))

	if s.cache != nil {
		var cached []*models.Plan
		found, err := s.cache.Get(ctx, ActivePlansKey, &cached)
		if err != nil {
			log.Warn("failed to read plans from cache", sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	plans, err := s.repo.ListActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, ActivePlansKey, plans, s.ttl); err != nil {
			log.Warn("failed to cache plans", sl.Err(err))
		}
	}
	return plans, nil
}

// Get возвращает активный план. Неактивный план для публичного чтения не существует.
func (s *PlanService) Get(ctx context.Context, id string) (*models.Plan, error) {
	const op = "services.plan.Get"
	p, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
	}
	return p, nil
}

// Create добавляет план в каталог.
func (s *PlanService) Create(ctx context.Context, in models.PlanCreate) (*models.Plan, error) {
	const op = "services.plan.Create"
	p := &models.Plan{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Price:        in.Price,
		DeviceLimit:  in.DeviceLimit,
		DurationDays: in.DurationDays,
		Features:     in.Features,
		IsActive:     true,
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	s.log.Info("plan created", slog.String("plan_id", p.ID), slog.String("name", p.Name))
	return p, nil
}

// Update применяет частичное обновление плана.
func (s *PlanService) Update(ctx context.Context, id string, upd models.PlanUpdate) (*models.Plan, error) {
	const op = "services.plan.Update"
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
	}
	p, err := s.repo.UpdatePlan(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	return p, nil
}

// Delete удаляет план, на который никто не ссылается.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	const op = "services.plan.Delete"
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	s.log.Info("plan deleted", slog.String("plan_id", id))
	return nil
}

// Stats статистика плана для администратора.
func (s *PlanService) Stats(ctx context.Context, id string) (*models.PlanStats, error) {
	const op = "services.plan.Stats"
	st, err := s.repo.PlanStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

func (s *PlanService) invalidate(ctx context.Context, op string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ActivePlansKey); err != nil {
		s.log.Warn("failed to invalidate plans cache", slog.String("op", op), sl.Err(err))
	}
}
