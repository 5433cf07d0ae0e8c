package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

const planColumns = `p.id, p.name, p.price, p.device_limit, p.duration_days, p.features, p.is_active, p.created_at, p.updated_at`

func scanPlan(row scanner, p *models.Plan) error {
	var features []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.DeviceLimit, &p.DurationDays,
		&features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	return decodeFeatures(features, p)
}

func decodeFeatures(raw []byte, p *models.Plan) error {
	p.Features = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &p.Features)
}

func encodeFeatures(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	b, err := json.Marshal(features)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ListActivePlans возвращает активные планы по возрастанию цены.
func (s *Storage) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListActivePlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans p
			  WHERE p.is_active
			  ORDER BY p.price ASC, p.name ASC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	plans := make([]*models.Plan, 0)
	for rows.Next() {
		var p models.Plan
		if err := scanPlan(rows, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// GetPlan возвращает план по id, включая неактивные.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans p WHERE p.id = $1`
	var p models.Plan
	if err := scanPlan(s.DB.QueryRowContext(ctx, query, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// GetPlanByName возвращает план по уникальному имени.
func (s *Storage) GetPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	const op = "storage.GetPlanByName"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans p WHERE p.name = $1`
	var p models.Plan
	if err := scanPlan(s.DB.QueryRowContext(ctx, query, name), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// CreatePlan сохраняет новый план. Дубликат имени возвращает ErrPlanNameExists.
func (s *Storage) CreatePlan(ctx context.Context, p *models.Plan) error {
	const op = "storage.CreatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	features, err := encodeFeatures(p.Features)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO subscription_plans (id, name, price, device_limit, duration_days, features, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING created_at, updated_at`
	err = s.DB.QueryRowContext(ctx, query, p.ID, p.Name, p.Price, p.DeviceLimit, p.DurationDays,
		features, p.IsActive).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrPlanNameExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePlan применяет частичное обновление и возвращает обновлённый план.
func (s *Storage) UpdatePlan(ctx context.Context, id string, upd models.PlanUpdate) (*models.Plan, error) {
	const op = "storage.UpdatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	sets := make([]string, 0, 7)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.DeviceLimit != nil {
		add("device_limit", *upd.DeviceLimit)
	}
	if upd.DurationDays != nil {
		add("duration_days", *upd.DurationDays)
	}
	if upd.Features != nil {
		features, err := encodeFeatures(*upd.Features)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		add("features", features)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	if len(sets) == 0 {
		return s.GetPlan(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE subscription_plans p SET %s WHERE p.id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), planColumns)

	var p models.Plan
	if err := scanPlan(s.DB.QueryRowContext(ctx, query, args...), &p); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNameExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// DeletePlan удаляет план, если на него не ссылаются пользователи и заказы.
// Проверка и удаление выполняются под блокировкой строки плана.
func (s *Storage) DeletePlan(ctx context.Context, id string) error {
	const op = "storage.DeletePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var locked string
		err := tx.QueryRowContext(ctx, `SELECT id FROM subscription_plans WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrPlanNotFound
		}
		if err != nil {
			return err
		}

		var users, orders int
		err = tx.QueryRowContext(ctx, `SELECT
				(SELECT COUNT(*) FROM users WHERE plan_id = $1),
				(SELECT COUNT(*) FROM orders WHERE plan_id = $1)`, id).Scan(&users, &orders)
		if err != nil {
			return err
		}
		if users > 0 || orders > 0 {
			return models.ErrPlanInUse
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PlanStats собирает статистику продаж и пользователей плана.
func (s *Storage) PlanStats(ctx context.Context, id string) (*models.PlanStats, error) {
	const op = "storage.PlanStats"

	plan, err := s.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats := &models.PlanStats{
		Plan:         plan,
		RecentUsers:  make([]models.UserSummary, 0),
		RecentOrders: make([]*models.Order, 0),
	}

	err = s.DB.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM users WHERE plan_id = $1),
			(SELECT COALESCE(SUM(amount), 0) FROM orders WHERE plan_id = $1 AND status = 'COMPLETED'),
			(SELECT COUNT(*) FROM orders WHERE plan_id = $1),
			(SELECT COUNT(*) FROM orders WHERE plan_id = $1 AND status = 'COMPLETED'),
			(SELECT COUNT(*) FROM orders WHERE plan_id = $1 AND status = 'PENDING')`, id).
		Scan(&stats.TotalUsers, &stats.TotalRevenue, &stats.TotalOrders, &stats.CompletedOrders, &stats.PendingOrders)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, email, created_at FROM users
			WHERE plan_id = $1 ORDER BY created_at DESC LIMIT 10`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats.RecentUsers = append(stats.RecentUsers, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, _, err := s.listOrders(ctx, orderFilter{planID: id}, 10, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.RecentOrders = orders
	return stats, nil
}
