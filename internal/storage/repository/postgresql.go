// Package repository реализует хранилище данных на основе PostgreSQL:
// пользователи, тарифные планы, устройства, заказы и уведомления.
// Все изменения, которые должны применяться вместе, выполняются в одной транзакции.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/juju/clock"
	"github.com/juju/retry"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolationCode = "23505"

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Connect ждет готовности базы: до attempts попыток New с паузой delay.
func Connect(ctx context.Context, storageConnectionString string, attempts int, delay time.Duration) (*Storage, error) {
	const op = "storage.Connect"
	if attempts < 1 {
		attempts = 1
	}

	var (
		storage *Storage
		lastErr error
	)
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			s, err := New(storageConnectionString)
			if err != nil {
				return err
			}
			storage = s
			return nil
		},
		NotifyFunc: func(err error, _ int) {
			lastErr = err
		},
		Attempts: attempts,
		Delay:    delay,
		Clock:    clock.WallClock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		if lastErr != nil {
			return nil, fmt.Errorf("%s: %w", op, lastErr)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return storage, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// CheckDatabaseReady проверяет, что база доступна и схема применена.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	const op = "storage.CheckDatabaseReady"
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'orders'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: required table orders missing", op)
	}
	return nil
}

// withTx выполняет fn в транзакции: коммит при успехе, откат при ошибке.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

type scanner interface {
	Scan(dest ...any) error
}
