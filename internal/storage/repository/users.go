package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

const userColumns = `id, name, email, created_at, is_active`

func (s *Storage) scanUser(row interface{ Scan(dest ...any) error }) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.IsActive); err != nil {
		return models.User{}, err
	}
	if err := s.check(u); err != nil {
		return models.User{}, fmt.Errorf("user %d: %w", u.ID, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по ID или models.ErrUserNotFound.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := s.getUser(ctx, s.DB, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) getUser(ctx context.Context, q querier, id int64) (*models.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := s.scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers возвращает всех пользователей в порядке ID.
func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	users, err := s.listUsers(ctx, s.DB, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ListActiveUsers возвращает пользователей с is_active = true в порядке ID.
func (s *Storage) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	const op = "storage.ListActiveUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	users, err := s.listUsers(ctx, s.DB, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (s *Storage) listUsers(ctx context.Context, q querier, activeOnly bool) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.User, 0)
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
