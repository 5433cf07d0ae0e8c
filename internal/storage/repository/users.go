package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

const userWithPlanQuery = `SELECT u.id, u.name, u.email, u.password_hash, u.role, u.plan_id,
			u.subscription_expiry, u.traccar_user_id, u.created_at, u.updated_at, ` + planColumns + `
		  FROM users u
		  JOIN subscription_plans p ON p.id = u.plan_id`

func scanUserWithPlan(row scanner) (*models.User, error) {
	var (
		u        models.User
		p        models.Plan
		features []byte
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.PlanID,
		&u.SubscriptionExpiry, &u.TraccarUserID, &u.CreatedAt, &u.UpdatedAt,
		&p.ID, &p.Name, &p.Price, &p.DeviceLimit, &p.DurationDays, &features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeFeatures(features, &p); err != nil {
		return nil, err
	}
	u.Plan = &p
	return &u, nil
}

// CreateUser сохраняет нового пользователя. Занятый email возвращает ErrUserExists.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO users (id, name, email, password_hash, role, plan_id, subscription_expiry)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role,
		u.PlanID, u.SubscriptionExpiry).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя с текущим планом по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUserWithPlan(s.DB.QueryRowContext(ctx, userWithPlanQuery+` WHERE u.email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя с текущим планом по id.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUserWithPlan(s.DB.QueryRowContext(ctx, userWithPlanQuery+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetTraccarUserID сохраняет id пользователя на платформе трекинга.
func (s *Storage) SetTraccarUserID(ctx context.Context, userID string, traccarID int64) error {
	const op = "storage.SetTraccarUserID"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `UPDATE users SET traccar_user_id = $1, updated_at = NOW() WHERE id = $2`,
		traccarID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscription назначает пользователю план и дату окончания подписки.
func (s *Storage) UpdateSubscription(ctx context.Context, userID, planID string, expiry time.Time) error {
	const op = "storage.UpdateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users
			SET plan_id = $1, subscription_expiry = $2, updated_at = NOW()
			WHERE id = $3`, planID, expiry, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	return nil
}

// ListExpiredUsers возвращает пользователей не на плане excludePlanID, чья подписка
// истекла до now. Выборка постраничная по id: afterID это последний id предыдущей страницы.
func (s *Storage) ListExpiredUsers(ctx context.Context, now time.Time, excludePlanID, afterID string, limit int) ([]*models.ExpiringUser, error) {
	const op = "storage.ListExpiredUsers"

	users, err := s.listUsersByExpiry(ctx, time.Time{}, now, excludePlanID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ListExpiringUsers возвращает пользователей, чья подписка истекает в интервале [from, to).
func (s *Storage) ListExpiringUsers(ctx context.Context, from, to time.Time, excludePlanID, afterID string, limit int) ([]*models.ExpiringUser, error) {
	const op = "storage.ListExpiringUsers"

	users, err := s.listUsersByExpiry(ctx, from, to, excludePlanID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (s *Storage) listUsersByExpiry(ctx context.Context, from, to time.Time, excludePlanID, afterID string, limit int) ([]*models.ExpiringUser, error) {
	if err := checkCtx(ctx, "storage.listUsersByExpiry"); err != nil {
		return nil, err
	}

	query := `SELECT u.id, u.name, u.email, u.plan_id, p.name, u.subscription_expiry
			  FROM users u
			  JOIN subscription_plans p ON p.id = u.plan_id
			  WHERE u.plan_id <> $1
			    AND u.subscription_expiry IS NOT NULL
			    AND u.subscription_expiry >= $2
			    AND u.subscription_expiry < $3
			    AND ($4 = '' OR u.id::text > $4)
			  ORDER BY u.id::text
			  LIMIT $5`
	rows, err := s.DB.QueryContext(ctx, query, excludePlanID, from, to, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	users := make([]*models.ExpiringUser, 0, limit)
	for rows.Next() {
		var u models.ExpiringUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PlanID, &u.PlanName, &u.SubscriptionExpiry); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// DemoteExpiredUser переводит пользователя на план planID, только если его подписка
// всё ещё истекла на момент now и он не на этом плане. Возвращает false, если
// условие уже не выполняется.
func (s *Storage) DemoteExpiredUser(ctx context.Context, userID, planID string, now, expiry time.Time) (bool, error) {
	const op = "storage.DemoteExpiredUser"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users
			SET plan_id = $1, subscription_expiry = $2, updated_at = NOW()
			WHERE id = $3 AND plan_id <> $1 AND subscription_expiry < $4`,
		planID, expiry, userID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// PublicStats возвращает общее число пользователей, устройств и активных планов.
func (s *Storage) PublicStats(ctx context.Context) (*models.PublicStats, error) {
	const op = "storage.PublicStats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var st models.PublicStats
	err := s.DB.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM devices WHERE is_active),
			(SELECT COUNT(*) FROM subscription_plans WHERE is_active)`).
		Scan(&st.TotalUsers, &st.TotalDevices, &st.ActivePlans)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &st, nil
}
