package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// CreateNotification добавляет уведомление в журнал пользователя.
func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	const op = "storage.CreateNotification"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	var data any
	if len(n.Data) > 0 {
		data = string(n.Data)
	}
	err := s.DB.QueryRowContext(ctx, `INSERT INTO notifications (id, user_id, type, title, message, data)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, data).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListNotifications возвращает последние limit уведомлений пользователя.
func (s *Storage) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, user_id, type, title, message, data, is_read, created_at
			FROM notifications
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	list := make([]*models.Notification, 0, limit)
	for rows.Next() {
		var (
			n    models.Notification
			data []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(data) > 0 {
			n.Data = data
		}
		list = append(list, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// CountUnreadNotifications возвращает число непрочитанных уведомлений.
func (s *Storage) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	const op = "storage.CountUnreadNotifications"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`,
		userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// MarkNotificationRead отмечает уведомление прочитанным. Возвращает false,
// если уведомление не найдено среди уведомлений пользователя.
func (s *Storage) MarkNotificationRead(ctx context.Context, userID, id string) (bool, error) {
	const op = "storage.MarkNotificationRead"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// MarkAllNotificationsRead отмечает все уведомления пользователя прочитанными.
func (s *Storage) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	const op = "storage.MarkAllNotificationsRead"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
