// Package device реестр GPS-трекеров пользователей.
//
// Локальная запись об устройстве считается основной и создаётся первой. Регистрация
// на платформе трекинга выполняется после неё и без гарантий: если платформа недоступна, устройство
// сохраняется без внешнего id и не может отдавать позиции.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
	"github.com/magabrotheeeer/tracker-saas/internal/services/notification"
)

// Repository хранилище устройств.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListDevices(ctx context.Context, userID string) ([]*models.Device, error)
	ListAllDevices(ctx context.Context, limit, offset int) ([]*models.Device, int, error)
	GetDevice(ctx context.Context, userID, id string) (*models.Device, error)
	DeviceIMEIExists(ctx context.Context, imei string) (bool, error)
	CountActiveDevices(ctx context.Context, userID string) (int, error)
	CreateDeviceWithinLimit(ctx context.Context, d *models.Device, limit int) error
	SetTraccarID(ctx context.Context, id string, traccarID int64) error
	DeleteDevice(ctx context.Context, userID, id string) (bool, error)
}

// TrackingPlatform внешняя платформа трекинга.
type TrackingPlatform interface {
	CreateDevice(ctx context.Context, name, imei string) (int64, error)
	Positions(ctx context.Context, deviceID int64) ([]models.Position, error)
	Route(ctx context.Context, deviceID int64, from, to time.Time) ([]models.Position, error)
}

// Notifier уведомляет о превышении лимита устройств.
type Notifier interface {
	DeviceLimitExceeded(ctx context.Context, to notification.Recipient, currentLimit int)
}

// DeviceService бизнес-логика реестра устройств.
type DeviceService struct {
	repo     Repository
	tracker  TrackingPlatform
	notifier Notifier
	log      *slog.Logger
}

// NewDeviceService создает сервис. tracker и notifier могут быть nil.
func NewDeviceService(repo Repository, tracker TrackingPlatform, notifier Notifier, log *slog.Logger) *DeviceService {
	return &DeviceService{
		repo:     repo,
		tracker:  tracker,
		notifier: notifier,
		log:      log,
	}
}

// List устройства пользователя.
func (s *DeviceService) List(ctx context.Context, userID string) ([]*models.Device, error) {
	const op = "services.device.List"
	devices, err := s.repo.ListDevices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return devices, nil
}

// ListAll страница всех устройств для администратора.
func (s *DeviceService) ListAll(ctx context.Context, limit, offset int) ([]*models.Device, int, error) {
	const op = "services.device.ListAll"
	devices, total, err := s.repo.ListAllDevices(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return devices, total, nil
}

// Create регистрирует устройство в пределах лимита тарифа пользователя.
// При превышении лимита возвращает *models.DeviceLimitError и создаёт уведомление.
func (s *DeviceService) Create(ctx context.Context, userID, name, imei string) (*models.Device, error) {
	const op = "services.device.Create"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Plan == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
	}
	limit := user.Plan.DeviceLimit

	count, err := s.repo.CountActiveDevices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count >= limit {
		return nil, fmt.Errorf("%s: %w", op, s.limitReached(ctx, user))
	}

	exists, err := s.repo.DeviceIMEIExists(ctx, imei)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, models.ErrIMEIExists)
	}

	d := &models.Device{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     strings.TrimSpace(name),
		IMEI:     imei,
		IsActive: true,
	}
	if err := s.repo.CreateDeviceWithinLimit(ctx, d, limit); err != nil {
		if errors.Is(err, models.ErrDeviceLimit) {
			return nil, fmt.Errorf("%s: %w", op, s.limitReached(ctx, user))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// на платформе регистрируем только сохранённое устройство
	if s.tracker != nil {
		s.link(ctx, log, d)
	}
	log.Info("device created", slog.String("device_id", d.ID), slog.Bool("linked", d.IsLinked()))
	return d, nil
}

func (s *DeviceService) link(ctx context.Context, log *slog.Logger, d *models.Device) {
	traccarID, err := s.tracker.CreateDevice(ctx, d.Name, d.IMEI)
	if err != nil {
		log.Warn("failed to register device on tracking platform", slog.String("device_id", d.ID), sl.Err(err))
		return
	}
	if err := s.repo.SetTraccarID(ctx, d.ID, traccarID); err != nil {
		log.Error("failed to save tracking platform id", slog.String("device_id", d.ID),
			slog.Int64("traccar_id", traccarID), sl.Err(err))
		return
	}
	d.TraccarID = &traccarID
}

func (s *DeviceService) limitReached(ctx context.Context, user *models.User) error {
	if s.notifier != nil {
		s.notifier.DeviceLimitExceeded(ctx, notification.Recipient{ID: user.ID, Name: user.Name, Email: user.Email},
			user.Plan.DeviceLimit)
	}
	return &models.DeviceLimitError{PlanName: user.Plan.Name, Limit: user.Plan.DeviceLimit}
}

// Delete удаляет устройство пользователя.
func (s *DeviceService) Delete(ctx context.Context, userID, id string) error {
	const op = "services.device.Delete"
	deleted, err := s.repo.DeleteDevice(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !deleted {
		return fmt.Errorf("%s: %w", op, models.ErrDeviceNotFound)
	}
	return nil
}

// Position последние позиции устройства с платформы трекинга.
func (s *DeviceService) Position(ctx context.Context, userID, id string) ([]models.Position, error) {
	const op = "services.device.Position"
	d, err := s.linkedDevice(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	positions, err := s.tracker.Positions(ctx, *d.TraccarID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return positions, nil
}

// Route маршрут устройства за интервал [from, to].
func (s *DeviceService) Route(ctx context.Context, userID, id string, from, to time.Time) ([]models.Position, error) {
	const op = "services.device.Route"
	d, err := s.linkedDevice(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	positions, err := s.tracker.Route(ctx, *d.TraccarID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return positions, nil
}

func (s *DeviceService) linkedDevice(ctx context.Context, userID, id string) (*models.Device, error) {
	d, err := s.repo.GetDevice(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !d.IsLinked() || s.tracker == nil {
		return nil, models.ErrDeviceNotLinked
	}
	return d, nil
}
