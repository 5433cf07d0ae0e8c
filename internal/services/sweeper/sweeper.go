// Package sweeper ежедневно переводит пользователей с истекшей подпиской на план
// по умолчанию и предупреждает тех, чья подписка скоро истечёт.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/juju/clock"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
	"github.com/magabrotheeeer/tracker-saas/internal/services/notification"
)

// lockTTL время жизни дневной метки. Больше суток, чтобы метка пережила смену даты
// в другом часовом поясе.
const lockTTL = 48 * time.Hour

// Repository выборка и перевод пользователей.
type Repository interface {
	GetPlanByName(ctx context.Context, name string) (*models.Plan, error)
	ListExpiredUsers(ctx context.Context, now time.Time, excludePlanID, afterID string, limit int) ([]*models.ExpiringUser, error)
	ListExpiringUsers(ctx context.Context, from, to time.Time, excludePlanID, afterID string, limit int) ([]*models.ExpiringUser, error)
	DemoteExpiredUser(ctx context.Context, userID, planID string, now, expiry time.Time) (bool, error)
}

// Locker дневные метки обработанных пользователей.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Notifier уведомления об окончании подписки.
type Notifier interface {
	ExpiryWarning(ctx context.Context, to notification.Recipient, daysLeft int, planName string)
	SubscriptionExpired(ctx context.Context, to notification.Recipient, planName, defaultPlan string)
}

// Options параметры расписания и выборки.
type Options struct {
	DefaultPlan string
	Location    *time.Location
	RunHour     int
	RunMinute   int
	WarningDays int
	BatchSize   int
}

// Report итог одного прохода.
type Report struct {
	Demoted int
	Warned  int
}

// Sweeper ежедневная проверка подписок.
type Sweeper struct {
	repo     Repository
	locker   Locker
	notifier Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	opts     Options
	log      *slog.Logger
}

// New создает Sweeper. Пустые поля opts заменяются значениями по умолчанию.
func New(repo Repository, locker Locker, notifier Notifier, m *metrics.Metrics, clk clock.Clock,
	opts Options, log *slog.Logger) *Sweeper {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.DefaultPlan == "" {
		opts.DefaultPlan = "Free"
	}
	return &Sweeper{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		metrics:  m,
		clock:    clk,
		opts:     opts,
		log:      log,
	}
}

// NextRun ближайший момент запуска строго после now.
func (s *Sweeper) NextRun(now time.Time) time.Time {
	local := now.In(s.opts.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.opts.RunHour, s.opts.RunMinute, 0, 0, s.opts.Location)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.opts.RunHour, s.opts.RunMinute, 0, 0, s.opts.Location)
	}
	return next
}

// RunDaily ждёт очередного времени запуска и выполняет Sweep, пока ctx не отменён.
// Ошибка прохода логируется и не останавливает расписание.
func (s *Sweeper) RunDaily(ctx context.Context) error {
	const op = "services.sweeper.RunDaily"
	log := s.log.With(slog.String("op", op))

	for {
		now := s.clock.Now()
		next := s.NextRun(now)
		log.Info("next sweep scheduled", slog.Time("at", next))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
		}

		report, err := s.Sweep(ctx)
		if err != nil {
			log.Error("sweep failed", sl.Err(err))
			continue
		}
		log.Info("sweep finished", slog.Int("demoted", report.Demoted), slog.Int("warned", report.Warned))
	}
}

// Sweep переводит пользователей с истекшей подпиской на план по умолчанию и
// рассылает предупреждения. Повторный запуск в тот же день ничего не меняет.
func (s *Sweeper) Sweep(ctx context.Context) (*Report, error) {
	const op = "services.sweeper.Sweep"

	defaultPlan, err := s.repo.GetPlanByName(ctx, s.opts.DefaultPlan)
	if err != nil {
		return nil, fmt.Errorf("%s: default plan %q: %w", op, s.opts.DefaultPlan, err)
	}
	now := s.clock.Now().UTC()
	report := &Report{}

	if err := s.demoteExpired(ctx, defaultPlan, now, report); err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}
	if s.opts.WarningDays > 0 {
		if err := s.warnExpiring(ctx, defaultPlan, now, report); err != nil {
			return report, fmt.Errorf("%s: %w", op, err)
		}
	}
	return report, nil
}

func (s *Sweeper) demoteExpired(ctx context.Context, defaultPlan *models.Plan, now time.Time, report *Report) error {
	log := s.log.With(slog.String("op", "services.sweeper.demoteExpired"))
	day := s.day(now)
	expiry := defaultPlan.ExpiryFrom(now)

	return s.eachBatch(func(afterID string) ([]*models.ExpiringUser, error) {
		return s.repo.ListExpiredUsers(ctx, now, defaultPlan.ID, afterID, s.opts.BatchSize)
	}, func(u *models.ExpiringUser) {
		ulog := log.With(slog.String("user_id", u.ID))
		if !s.acquire(ctx, ulog, "expired", day, u.ID, true) {
			return
		}
		applied, err := s.repo.DemoteExpiredUser(ctx, u.ID, defaultPlan.ID, now, expiry)
		if err != nil {
			ulog.Error("failed to move user to default plan", sl.Err(err))
			// метку снимаем, чтобы следующий проход в тот же день повторил перевод
			s.release(ctx, ulog, "expired", day, u.ID)
			return
		}
		if !applied {
			return
		}
		report.Demoted++
		s.metrics.Demoted()
		if s.notifier != nil {
			s.notifier.SubscriptionExpired(ctx, recipient(u), u.PlanName, defaultPlan.Name)
		}
		ulog.Info("subscription expired, moved to default plan", slog.String("from_plan", u.PlanName))
	})
}

func (s *Sweeper) warnExpiring(ctx context.Context, defaultPlan *models.Plan, now time.Time, report *Report) error {
	log := s.log.With(slog.String("op", "services.sweeper.warnExpiring"))
	day := s.day(now)
	until := now.Add(time.Duration(s.opts.WarningDays) * 24 * time.Hour)

	return s.eachBatch(func(afterID string) ([]*models.ExpiringUser, error) {
		return s.repo.ListExpiringUsers(ctx, now, until, defaultPlan.ID, afterID, s.opts.BatchSize)
	}, func(u *models.ExpiringUser) {
		ulog := log.With(slog.String("user_id", u.ID))
		if !s.acquire(ctx, ulog, "warning", day, u.ID, false) {
			return
		}
		daysLeft := int(math.Ceil(u.SubscriptionExpiry.Sub(now).Hours() / 24))
		report.Warned++
		s.metrics.Warned()
		if s.notifier != nil {
			s.notifier.ExpiryWarning(ctx, recipient(u), daysLeft, u.PlanName)
		}
	})
}

func (s *Sweeper) eachBatch(list func(afterID string) ([]*models.ExpiringUser, error), fn func(u *models.ExpiringUser)) error {
	afterID := ""
	for {
		batch, err := list(afterID)
		if err != nil {
			return err
		}
		for _, u := range batch {
			fn(u)
		}
		if len(batch) < s.opts.BatchSize {
			return nil
		}
		afterID = batch[len(batch)-1].ID
	}
}

// acquire ставит дневную метку. При недоступном Redis перевод на план продолжается,
// так как он сам защищён условием в UPDATE, а предупреждение пропускается.
func (s *Sweeper) acquire(ctx context.Context, log *slog.Logger, kind, day, userID string, onError bool) bool {
	if s.locker == nil {
		return true
	}
	ok, err := s.locker.Acquire(ctx, guardKey(kind, day, userID), lockTTL)
	if err != nil {
		log.Warn("failed to acquire daily guard", slog.String("kind", kind), sl.Err(err))
		return onError
	}
	return ok
}

func (s *Sweeper) release(ctx context.Context, log *slog.Logger, kind, day, userID string) {
	if s.locker == nil {
		return
	}
	if err := s.locker.Release(ctx, guardKey(kind, day, userID)); err != nil {
		log.Warn("failed to release daily guard", slog.String("kind", kind), sl.Err(err))
	}
}

func guardKey(kind, day, userID string) string {
	return fmt.Sprintf("sweeper:%s:%s:%s", kind, day, userID)
}

func (s *Sweeper) day(now time.Time) string {
	return now.In(s.opts.Location).Format(time.DateOnly)
}

func recipient(u *models.ExpiringUser) notification.Recipient {
	return notification.Recipient{ID: u.ID, Name: u.Name, Email: u.Email}
}
