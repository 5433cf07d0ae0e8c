package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

const deviceColumns = `d.id, d.user_id, d.name, d.imei, d.traccar_id, d.is_active, d.created_at, d.updated_at`

func scanDevice(row scanner, d *models.Device) error {
	return row.Scan(&d.ID, &d.UserID, &d.Name, &d.IMEI, &d.TraccarID, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
}

// ListDevices возвращает устройства пользователя, новые первыми.
func (s *Storage) ListDevices(ctx context.Context, userID string) ([]*models.Device, error) {
	const op = "storage.ListDevices"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices d
			WHERE d.user_id = $1 ORDER BY d.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	devices := make([]*models.Device, 0)
	for rows.Next() {
		var d models.Device
		if err := scanDevice(rows, &d); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		devices = append(devices, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return devices, nil
}

// ListAllDevices возвращает страницу всех устройств с владельцами и общее количество.
func (s *Storage) ListAllDevices(ctx context.Context, limit, offset int) ([]*models.Device, int, error) {
	const op = "storage.ListAllDevices"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+deviceColumns+`, u.id, u.name, u.email
			FROM devices d
			JOIN users u ON u.id = d.user_id
			ORDER BY d.created_at DESC
			LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	devices := make([]*models.Device, 0, limit)
	for rows.Next() {
		var (
			d     models.Device
			owner models.UserSummary
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.IMEI, &d.TraccarID, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
			&owner.ID, &owner.Name, &owner.Email); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		d.Owner = &owner
		devices = append(devices, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return devices, total, nil
}

// GetDevice возвращает устройство, принадлежащее пользователю.
func (s *Storage) GetDevice(ctx context.Context, userID, id string) (*models.Device, error) {
	const op = "storage.GetDevice"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var d models.Device
	err := scanDevice(s.DB.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices d
			WHERE d.id = $1 AND d.user_id = $2`, id, userID), &d)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrDeviceNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &d, nil
}

// DeviceIMEIExists проверяет, зарегистрирован ли IMEI в системе.
func (s *Storage) DeviceIMEIExists(ctx context.Context, imei string) (bool, error) {
	const op = "storage.DeviceIMEIExists"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM devices WHERE imei = $1)`, imei).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CountActiveDevices возвращает число активных устройств пользователя.
func (s *Storage) CountActiveDevices(ctx context.Context, userID string) (int, error) {
	const op = "storage.CountActiveDevices"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices WHERE user_id = $1 AND is_active`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// CreateDeviceWithinLimit сохраняет устройство, если у владельца меньше limit активных устройств.
// Строка пользователя блокируется на время проверки, поэтому параллельные вызовы
// для одного пользователя выполняются последовательно.
func (s *Storage) CreateDeviceWithinLimit(ctx context.Context, d *models.Device, limit int) error {
	const op = "storage.CreateDeviceWithinLimit"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var locked string
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, d.UserID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices WHERE user_id = $1 AND is_active`, d.UserID).Scan(&count); err != nil {
			return err
		}
		if count >= limit {
			return models.ErrDeviceLimit
		}

		err = tx.QueryRowContext(ctx, `INSERT INTO devices (id, user_id, name, imei, traccar_id, is_active)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING created_at, updated_at`,
			d.ID, d.UserID, d.Name, d.IMEI, d.TraccarID, d.IsActive).Scan(&d.CreatedAt, &d.UpdatedAt)
		if isUniqueViolation(err) {
			return models.ErrIMEIExists
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetTraccarID сохраняет id устройства на платформе трекинга.
func (s *Storage) SetTraccarID(ctx context.Context, id string, traccarID int64) error {
	const op = "storage.SetTraccarID"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE devices SET traccar_id = $2, updated_at = NOW() WHERE id = $1`, id, traccarID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrDeviceNotFound)
	}
	return nil
}

// DeleteDevice удаляет устройство пользователя. Возвращает false, если устройства
// нет или оно принадлежит другому пользователю.
func (s *Storage) DeleteDevice(ctx context.Context, userID, id string) (bool, error) {
	const op = "storage.DeleteDevice"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM devices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}
