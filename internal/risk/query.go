package risk

import (
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

type scored struct {
	history    History
	assessment Assessment
	ok         bool
}

// assessAll оценивает популяцию параллельно. Результат i соответствует population[i].
func (e *Engine) assessAll(population []History) []scored {
	out := make([]scored, len(population))

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i := range population {
		g.Go(func() error {
			a, ok := e.Assess(population[i])
			out[i] = scored{history: population[i], assessment: a, ok: ok}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// RankRisky возвращает пользователей с оценкой не ниже minScore, по убыванию оценки.
// Неактивные пользователи и пользователи без активной подписки пропускаются.
// При равных оценках сохраняется исходный порядок популяции.
func (e *Engine) RankRisky(population []History, minScore float64, limit int) []models.UserRiskSummary {
	return e.rank(e.assessAll(population), minScore, limit)
}

func (e *Engine) rank(all []scored, minScore float64, limit int) []models.UserRiskSummary {
	if limit <= 0 {
		return []models.UserRiskSummary{}
	}

	now := e.now()
	result := make([]models.UserRiskSummary, 0)
	for _, sc := range all {
		if !sc.ok || !sc.history.User.IsActive || sc.assessment.Score < minScore {
			continue
		}
		sub, found := representativeSubscription(sc.history.Subscriptions, now)
		if !found {
			continue
		}

		u := sc.history.User
		s := sc.assessment.Signals
		result = append(result, models.UserRiskSummary{
			ID:               u.ID,
			Name:             u.Name,
			Email:            u.Email,
			RiskScore:        sc.assessment.Score,
			RiskLevel:        sc.assessment.Level,
			FailureRate:      s.OverallFailureRate,
			TotalPayments:    s.PaymentCount,
			FailedPayments:   s.FailedCount,
			SubscriptionType: sub.Type,
			MonthlyAmount:    sub.MonthlyAmount,
			CreatedAt:        u.CreatedAt,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RiskScore > result[j].RiskScore
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// representativeSubscription выбирает действующую подписку, а если её нет —
// первую подписку со статусом active.
func representativeSubscription(subs []models.Subscription, now time.Time) (models.Subscription, bool) {
	for _, s := range subs {
		if s.IsCurrent(now) {
			return s, true
		}
	}
	for _, s := range subs {
		if s.Status == models.SubscriptionActive {
			return s, true
		}
	}
	return models.Subscription{}, false
}

// SystemStats считает агрегированную статистику по популяции.
// Средняя оценка берётся по пользователям, у которых есть хотя бы один платёж;
// пользователи с одним платежом входят в среднее с оценкой 0.
func (e *Engine) SystemStats(population []History) models.SystemStats {
	all := e.assessAll(population)

	var stats models.SystemStats
	var scoreSum float64
	var scoredUsers int
	for _, sc := range all {
		if !sc.ok {
			continue
		}
		stats.TotalUsers++

		s := sc.assessment.Signals
		stats.TotalPayments += s.PaymentCount
		stats.FailedPayments += s.FailedCount
		if s.PaymentCount > 0 {
			scoreSum += sc.assessment.Score
			scoredUsers++
		}
	}

	stats.HighRiskUsers = len(e.rank(all, e.cfg.Thresholds.High, math.MaxInt))
	stats.OverallFailureRate = ratio(stats.FailedPayments, stats.TotalPayments)
	if scoredUsers > 0 {
		stats.AvgRiskScore = scoreSum / float64(scoredUsers)
	}
	if stats.TotalUsers > 0 {
		stats.RiskPercentage = float64(stats.HighRiskUsers) / float64(stats.TotalUsers) * 100
	}
	return stats
}
