// Package repository реализует чтение пользователей, подписок и платежей из PostgreSQL.
// Все выборки для одного расчёта риска выполняются в одной read-only транзакции
// с уровнем REPEATABLE READ, поэтому движок видит согласованный снимок истории.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB       *sql.DB
	validate *validator.Validate
}

// querier общий интерфейс *sql.DB и *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New открывает пул соединений с PostgreSQL и проверяет доступность базы.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB:       db,
		validate: validator.New(),
	}, nil
}

// CheckDatabaseReady проверяет, что миграции применены и таблица платежей существует.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	const op = "storage.CheckDatabaseReady"

	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_name = 'subscription_payments'
	)`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: required table subscription_payments missing", op)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// snapshot выполняет fn в read-only транзакции REPEATABLE READ.
func (s *Storage) snapshot(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// check проверяет прочитанную запись по тегам validate.
func (s *Storage) check(record any) error {
	if err := s.validate.Struct(record); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidRecord, err)
	}
	return nil
}
