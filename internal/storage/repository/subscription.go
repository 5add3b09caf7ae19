package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

const subscriptionColumns = `id, user_id, subscription_type, status, monthly_amount,
	effective_from, effective_until, created_at, updated_at`

// ListSubscriptions возвращает подписки пользователя, самые поздние первыми.
func (s *Storage) ListSubscriptions(ctx context.Context, userID int64) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	subs, err := s.listSubscriptions(ctx, s.DB, `WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

func (s *Storage) listSubscriptions(ctx context.Context, q querier, where string, args ...any) ([]models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions ` + where +
		` ORDER BY user_id, effective_from DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Subscription, 0)
	for rows.Next() {
		var sub models.Subscription
		if err = rows.Scan(&sub.ID, &sub.UserID, &sub.Type, &sub.Status, &sub.MonthlyAmount,
			&sub.EffectiveFrom, &sub.EffectiveUntil, &sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err = s.check(sub); err != nil {
			return nil, fmt.Errorf("subscription %d: %w", sub.ID, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
