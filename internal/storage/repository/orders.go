package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

const orderColumns = `o.id, o.user_id, o.plan_id, o.amount, o.currency, o.status, o.payment_ref, o.created_at, o.updated_at`

const orderWithRelationsQuery = `SELECT ` + orderColumns + `, ` + planColumns + `, u.id, u.name, u.email
		  FROM orders o
		  JOIN subscription_plans p ON p.id = o.plan_id
		  JOIN users u ON u.id = o.user_id`

func scanOrderWithRelations(row scanner) (*models.Order, error) {
	var (
		o        models.Order
		p        models.Plan
		u        models.UserSummary
		features []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.PlanID, &o.Amount, &o.Currency, &o.Status, &o.PaymentRef, &o.CreatedAt, &o.UpdatedAt,
		&p.ID, &p.Name, &p.Price, &p.DeviceLimit, &p.DurationDays, &features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&u.ID, &u.Name, &u.Email)
	if err != nil {
		return nil, err
	}
	if err := decodeFeatures(features, &p); err != nil {
		return nil, err
	}
	o.Plan = &p
	o.User = &u
	return &o, nil
}

type orderFilter struct {
	userID string
	planID string
	status models.OrderStatus
}

func (f orderFilter) where() (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.userID != "" {
		args = append(args, f.userID)
		conds = append(conds, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if f.planID != "" {
		args = append(args, f.planID)
		conds = append(conds, fmt.Sprintf("o.plan_id = $%d", len(args)))
	}
	if f.status != "" {
		args = append(args, string(f.status))
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Storage) listOrders(ctx context.Context, f orderFilter, limit, offset int) ([]*models.Order, int, error) {
	where, args := f.where()

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`%s%s ORDER BY o.created_at DESC, o.id LIMIT $%d OFFSET $%d`,
		orderWithRelationsQuery, where, len(args)+1, len(args)+2)
	rows, err := s.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = rows.Close()
	}()

	orders := make([]*models.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrderWithRelations(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// CreateOrder сохраняет новый заказ в статусе o.Status.
func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) error {
	const op = "storage.CreateOrder"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.DB.QueryRowContext(ctx, `INSERT INTO orders (id, user_id, plan_id, amount, currency, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.PlanID, o.Amount, o.Currency, string(o.Status)).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOrder возвращает заказ с планом и владельцем по id.
func (s *Storage) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	const op = "storage.GetOrder"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	// id приходит и из уведомлений шлюза, где это произвольная строка
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrOrderNotFound)
	}

	o, err := scanOrderWithRelations(s.DB.QueryRowContext(ctx, orderWithRelationsQuery+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// GetUserOrder возвращает заказ, только если он принадлежит пользователю.
func (s *Storage) GetUserOrder(ctx context.Context, userID, id string) (*models.Order, error) {
	const op = "storage.GetUserOrder"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	o, err := scanOrderWithRelations(s.DB.QueryRowContext(ctx,
		orderWithRelationsQuery+` WHERE o.id = $1 AND o.user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// ListUserOrders возвращает страницу заказов пользователя и их общее количество.
func (s *Storage) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]*models.Order, int, error) {
	const op = "storage.ListUserOrders"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	orders, total, err := s.listOrders(ctx, orderFilter{userID: userID}, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return orders, total, nil
}

// ListOrders возвращает страницу всех заказов, опционально с фильтром по статусу.
func (s *Storage) ListOrders(ctx context.Context, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error) {
	const op = "storage.ListOrders"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	orders, total, err := s.listOrders(ctx, orderFilter{status: status}, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return orders, total, nil
}

func transitionGuard(to models.OrderStatus, from []models.OrderStatus) error {
	if len(from) == 0 {
		return models.ErrTransitionNotAllowed
	}
	for _, f := range from {
		if !f.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", models.ErrTransitionNotAllowed, f, to)
		}
	}
	return nil
}

func transitionOrder(ctx context.Context, exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, id string, to models.OrderStatus, paymentRef *string, from []models.OrderStatus) (bool, error) {
	args := []any{string(to), paymentRef, id}
	placeholders := make([]string, 0, len(from))
	for _, f := range from {
		args = append(args, string(f))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	query := fmt.Sprintf(`UPDATE orders
			SET status = $1, payment_ref = COALESCE($2, payment_ref), updated_at = NOW()
			WHERE id = $3 AND status IN (%s)`, strings.Join(placeholders, ", "))

	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// TransitionOrder переводит заказ в статус to, только если его текущий статус входит в from.
// Если paymentRef не nil, он сохраняется вместе со статусом. Возвращает false,
// когда заказ уже не находится ни в одном из статусов from.
func (s *Storage) TransitionOrder(ctx context.Context, id string, to models.OrderStatus, paymentRef *string, from ...models.OrderStatus) (bool, error) {
	const op = "storage.TransitionOrder"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}
	if err := transitionGuard(to, from); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	applied, err := transitionOrder(ctx, s.DB, id, to, paymentRef, from)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return applied, nil
}

// CancelOrder отменяет заказ пользователя, если он всё ещё в статусе PENDING.
func (s *Storage) CancelOrder(ctx context.Context, userID, id string) (bool, error) {
	const op = "storage.CancelOrder"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE orders
			SET status = $1, updated_at = NOW()
			WHERE id = $2 AND user_id = $3 AND status = $4`,
		string(models.OrderCancelled), id, userID, string(models.OrderPending))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// CompleteOrder в одной транзакции переводит заказ PROCESSING → COMPLETED и назначает
// владельцу план заказа с датой окончания expiry. Если заказ уже не в PROCESSING,
// ничего не меняется и возвращается false.
func (s *Storage) CompleteOrder(ctx context.Context, o *models.Order, paymentRef string, expiry time.Time) (bool, error) {
	const op = "storage.CompleteOrder"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	errNotApplied := errors.New("not applied")
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		applied, err := transitionOrder(ctx, tx, o.ID, models.OrderCompleted, &paymentRef,
			[]models.OrderStatus{models.OrderProcessing})
		if err != nil {
			return err
		}
		if !applied {
			return errNotApplied
		}

		res, err := tx.ExecContext(ctx, `UPDATE users
				SET plan_id = $1, subscription_expiry = $2, updated_at = NOW()
				WHERE id = $3`, o.PlanID, expiry, o.UserID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrUserNotFound
		}
		return nil
	})
	if errors.Is(err, errNotApplied) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
