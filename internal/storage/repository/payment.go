package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

const paymentColumns = `id, subscription_id, user_id, amount, currency, status,
	payment_date, payment_method, failure_reason`

// ListPayments возвращает платежи пользователя от новых к старым.
func (s *Storage) ListPayments(ctx context.Context, userID int64) ([]models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	payments, err := s.listPayments(ctx, s.DB, `WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

func (s *Storage) listPayments(ctx context.Context, q querier, where string, args ...any) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM subscription_payments ` + where +
		` ORDER BY user_id, payment_date DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		var failureReason sql.NullString
		if err = rows.Scan(&p.ID, &p.SubscriptionID, &p.UserID, &p.Amount, &p.Currency, &p.Status,
			&p.PaymentDate, &p.Method, &failureReason,
		); err != nil {
			return nil, err
		}
		if failureReason.Valid {
			p.FailureReason = &failureReason.String
		}
		if err = s.check(p); err != nil {
			return nil, fmt.Errorf("payment %d: %w", p.ID, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
