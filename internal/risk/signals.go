package risk

import (
	"time"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

// History — всё, что движку нужно знать об одном пользователе.
// User == nil означает, что пользователь не найден.
type History struct {
	User          *models.User
	Payments      []models.Payment
	Subscriptions []models.Subscription
}

// Signals — именованные признаки, вычисленные один раз по истории пользователя.
// Из них строятся и оценка, и пояснения.
type Signals struct {
	PaymentCount int
	FailedCount  int

	// Sufficient ложно при истории короче двух платежей; оценка тогда равна 0.
	Sufficient bool

	RecentCount       int
	RecentFailed      int
	RecentFailureRate float64

	OverallFailureRate float64

	AccountAgeDays int
	AgeFactor      float64

	CurrentAmount float64
	OldAverage    float64
	AmountChange  AmountChange
	AmountFactor  float64

	Pattern      Pattern
	PatternBonus float64

	ConsecutiveRecentFailures bool
}

// computeSignals вычисляет все признаки за один проход по отсортированным копиям истории.
func computeSignals(h History, now time.Time) Signals {
	newest := newestFirst(h.Payments)
	oldest := oldestFirst(h.Payments)

	s := Signals{
		PaymentCount: len(h.Payments),
		FailedCount:  countFailed(h.Payments),
		Sufficient:   len(h.Payments) >= minPayments,
	}

	s.RecentFailureRate, s.RecentFailed, s.RecentCount = recentFailureRate(newest)
	s.OverallFailureRate = overallFailureRate(h.Payments)

	if h.User != nil {
		s.AccountAgeDays = accountAgeDays(h.User.CreatedAt, now)
		s.AgeFactor = accountAgeFactor(s.AccountAgeDays)
	}

	s.AmountChange, s.CurrentAmount, s.OldAverage = detectAmountChange(newest)
	s.AmountFactor = amountFactor(newest)

	s.Pattern, s.PatternBonus = detectPattern(oldest)
	s.ConsecutiveRecentFailures = consecutiveRecentFailures(newest)

	return s
}
