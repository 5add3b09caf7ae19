package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig(), WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return e
}

func mustScore(t *testing.T, e *Engine, h History) float64 {
	t.Helper()
	score, found := e.Score(h)
	require.True(t, found)
	return score
}

func mustExplain(t *testing.T, e *Engine, h History) []string {
	t.Helper()
	factors, found := e.Explain(h)
	require.True(t, found)
	return factors
}

// paymentsNewestFirst строит историю с одинаковой суммой: statuses[0] — самый свежий платёж,
// каждый следующий на месяц старше.
func paymentsNewestFirst(amount float64, statuses ...string) []models.Payment {
	out := make([]models.Payment, len(statuses))
	for i, st := range statuses {
		out[i] = models.Payment{
			ID:             int64(i + 1),
			SubscriptionID: 1,
			UserID:         1,
			Amount:         amount,
			Currency:       "EUR",
			Status:         st,
			PaymentDate:    testNow.AddDate(0, -i, 0),
			Method:         "card",
		}
	}
	return out
}

// withAmounts задаёт суммы в том же порядке, от новых к старым.
func withAmounts(payments []models.Payment, amounts ...float64) []models.Payment {
	for i := range payments {
		payments[i].Amount = amounts[i]
	}
	return payments
}

func userCreated(id int64, createdAt time.Time) *models.User {
	return &models.User{
		ID:        id,
		Name:      "user",
		Email:     "user@example.com",
		CreatedAt: createdAt,
		IsActive:  true,
	}
}

func oldUser(id int64) *models.User {
	return userCreated(id, testNow.AddDate(-1, 0, 0))
}

func activeSubscription(userID int64, amount float64) models.Subscription {
	return models.Subscription{
		ID:             userID,
		UserID:         userID,
		Type:           "premium",
		Status:         models.SubscriptionActive,
		MonthlyAmount:  amount,
		EffectiveFrom:  testNow.AddDate(0, -6, 0),
		EffectiveUntil: testNow.AddDate(0, 6, 0),
	}
}

const (
	paid = models.PaymentSuccess
	fail = models.PaymentFailed
	decl = models.PaymentDeclined
)
