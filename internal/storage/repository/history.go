package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
	"github.com/magabrotheeeer/risk-monitor/internal/risk"
)

// LoadHistory читает пользователя, его подписки и платежи из одного снимка базы.
func (s *Storage) LoadHistory(ctx context.Context, userID int64) (risk.History, error) {
	const op = "storage.LoadHistory"
	select {
	case <-ctx.Done():
		return risk.History{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var h risk.History
	err := s.snapshot(ctx, func(q querier) error {
		u, err := s.getUser(ctx, q, userID)
		if err != nil {
			return err
		}
		subs, err := s.listSubscriptions(ctx, q, `WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		payments, err := s.listPayments(ctx, q, `WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		h = risk.History{User: u, Subscriptions: subs, Payments: payments}
		return nil
	})
	if err != nil {
		return risk.History{}, fmt.Errorf("%s: %w", op, err)
	}
	return h, nil
}

// LoadPopulation читает истории всех пользователей из одного снимка базы
// тремя запросами и группирует записи по пользователю. Порядок результата — по ID.
func (s *Storage) LoadPopulation(ctx context.Context) ([]risk.History, error) {
	const op = "storage.LoadPopulation"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var population []risk.History
	err := s.snapshot(ctx, func(q querier) error {
		users, err := s.listUsers(ctx, q, false)
		if err != nil {
			return err
		}
		subs, err := s.listSubscriptions(ctx, q, ``)
		if err != nil {
			return err
		}
		payments, err := s.listPayments(ctx, q, ``)
		if err != nil {
			return err
		}
		population = group(users, subs, payments)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return population, nil
}

func group(users []models.User, subs []models.Subscription, payments []models.Payment) []risk.History {
	index := make(map[int64]int, len(users))
	population := make([]risk.History, len(users))
	for i := range users {
		index[users[i].ID] = i
		population[i].User = &users[i]
	}
	for _, sub := range subs {
		if i, ok := index[sub.UserID]; ok {
			population[i].Subscriptions = append(population[i].Subscriptions, sub)
		}
	}
	for _, p := range payments {
		if i, ok := index[p.UserID]; ok {
			population[i].Payments = append(population[i].Payments, p)
		}
	}
	return population
}
