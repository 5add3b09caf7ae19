package risk

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "negative weight", modify: func(c *Config) { c.Weights.Pattern = -0.1 }},
		{name: "medium above high", modify: func(c *Config) { c.Thresholds.Medium = 0.5 }},
		{name: "high equals critical", modify: func(c *Config) { c.Thresholds.High = 0.7 }},
		{name: "critical above one", modify: func(c *Config) { c.Thresholds.Critical = 1.5 }},
		{name: "zero medium", modify: func(c *Config) { c.Thresholds.Medium = 0 }},
		{name: "no workers", modify: func(c *Config) { c.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			e, err := New(cfg)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_ThresholdBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds = Thresholds{Medium: 0.01, High: 0.5, Critical: 1}
	require.NoError(t, cfg.Validate())

	cfg.Thresholds.Medium = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestDefaultConfig_WeightsSumToOne(t *testing.T) {
	w := DefaultConfig().Weights
	assert.InDelta(t, 1.0, w.RecentFailure+w.Amount+w.OverallFailure+w.AccountAge+w.Pattern, 1e-9)
	require.NoError(t, DefaultConfig().Validate())
}

func TestScore_InsufficientHistory(t *testing.T) {
	e := newTestEngine(t)
	newUser := userCreated(1, testNow.AddDate(0, 0, -1))

	for _, payments := range [][]models.Payment{nil, paymentsNewestFirst(1, fail)} {
		h := History{User: newUser, Payments: payments}

		score := mustScore(t, e, h)
		assert.Equal(t, 0.0, score)
		assert.Equal(t, models.RiskLow, e.Classify(score))
	}
}

func TestScore_TwoFailedOfLastThree(t *testing.T) {
	e := newTestEngine(t)
	h := History{User: oldUser(1), Payments: paymentsNewestFirst(20, fail, fail, paid)}

	s := e.Signals(h)
	assert.InDelta(t, 0.667, s.RecentFailureRate, 1e-3)
	assert.GreaterOrEqual(t, s.RecentFailureRate*DefaultRecentFailureWeight, 0.333)

	// 0.5*2/3 + 0.2*0.1 + 0.15*2/3 + 0.05*0.1 + 0.1*0.8
	assert.InDelta(t, 0.5383, mustScore(t, e, h), 1e-3)
	assert.Equal(t, models.RiskHigh, e.Classify(mustScore(t, e, h)))
}

func TestScore_MonotonicInRecentFailures(t *testing.T) {
	e := newTestEngine(t)

	histories := [][]string{
		{paid, paid, paid, paid, paid},
		{fail, paid, paid, paid, paid},
		{fail, fail, paid, paid, paid},
		{fail, fail, fail, paid, paid},
	}
	prev := -1.0
	for i, statuses := range histories {
		score := mustScore(t, e, History{User: oldUser(1), Payments: paymentsNewestFirst(20, statuses...)})
		assert.Greater(t, score, prev, "recent failures=%d", i)
		prev = score
	}
}

func TestAggregate_MonotonicWithOtherFactorsFixed(t *testing.T) {
	e := newTestEngine(t)
	base := Signals{
		Sufficient:         true,
		AmountFactor:       0.4,
		OverallFailureRate: 0.2,
		AgeFactor:          0.1,
		PatternBonus:       0.5,
	}

	prev := -1.0
	for _, rate := range []float64{0, 1.0 / 3, 2.0 / 3, 1} {
		s := base
		s.RecentFailureRate = rate
		score := e.aggregate(s)
		assert.Greater(t, score, prev)
		prev = score
	}
}

func TestScore_AlwaysBounded(t *testing.T) {
	heavy := DefaultConfig()
	heavy.Weights = Weights{RecentFailure: 1, Amount: 1, OverallFailure: 1, AccountAge: 1, Pattern: 1}

	engines := map[string]*Engine{"default": newTestEngine(t)}
	e, err := New(heavy, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	engines["heavy"] = e

	rnd := rand.New(rand.NewSource(42))
	statuses := []string{paid, fail, decl, "chargeback"}

	for name, engine := range engines {
		t.Run(name, func(t *testing.T) {
			for range 500 {
				n := rnd.Intn(60)
				payments := make([]models.Payment, n)
				for i := range payments {
					payments[i] = models.Payment{
						ID:          int64(i),
						Amount:      0.01 + rnd.Float64()*100,
						Status:      statuses[rnd.Intn(len(statuses))],
						PaymentDate: testNow.Add(-time.Duration(rnd.Intn(1000)) * time.Hour),
					}
				}
				user := userCreated(1, testNow.AddDate(0, 0, -rnd.Intn(400)))

				score := mustScore(t, engine, History{User: user, Payments: payments})
				require.GreaterOrEqual(t, score, 0.0)
				require.LessOrEqual(t, score, 1.0)
			}
		})
	}

	// всё плохо одновременно
	allBad := History{
		User:     userCreated(1, testNow),
		Payments: withAmounts(paymentsNewestFirst(0, fail, fail, fail, fail, paid), 1, 1, 50, 50, 50),
	}
	assert.Equal(t, 1.0, mustScore(t, engines["heavy"], allBad))
}

func TestClassify(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		score float64
		want  models.RiskLevel
	}{
		{score: 0, want: models.RiskLow},
		{score: 0.1999, want: models.RiskLow},
		{score: 0.2, want: models.RiskMedium},
		{score: 0.3999, want: models.RiskMedium},
		{score: 0.4, want: models.RiskHigh},
		{score: 0.6999, want: models.RiskHigh},
		{score: 0.7, want: models.RiskCritical},
		{score: 1, want: models.RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Classify(tt.score), "score=%v", tt.score)
	}
}

func TestClassify_CustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds = Thresholds{Medium: 0.1, High: 0.3, Critical: 0.5}
	e, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, models.RiskMedium, e.Classify(0.15))
	assert.Equal(t, models.RiskHigh, e.Classify(0.35))
	assert.Equal(t, models.RiskCritical, e.Classify(0.5))
}

func TestScore_DowngradeAppearsInScoreAndExplanation(t *testing.T) {
	e := newTestEngine(t)
	h := History{
		User:     oldUser(1),
		Payments: withAmounts(paymentsNewestFirst(0, paid, paid, paid, paid, paid), 2, 2, 9, 9, 9),
	}

	s := e.Signals(h)
	assert.Equal(t, AmountDowngrade, s.AmountChange)
	assert.Equal(t, 1.0, s.AmountFactor)
	// 0.2*1.0 + 0.05*0.1
	assert.InDelta(t, 0.205, mustScore(t, e, h), 1e-9)
	assert.Contains(t, mustExplain(t, e, h), "DOWNGRADE DETECTED: 9.00 → 2.00 (departure signal)")
}

func TestScore_UpgradeReducesAmountFactor(t *testing.T) {
	e := newTestEngine(t)
	h := History{
		User:     oldUser(1),
		Payments: withAmounts(paymentsNewestFirst(0, paid, paid, paid, paid, paid), 4, 4, 2, 2, 2),
	}

	s := e.Signals(h)
	assert.Equal(t, AmountUpgrade, s.AmountChange)
	assert.InDelta(t, 0.3, s.AmountFactor, 1e-9)

	factors := mustExplain(t, e, h)
	assert.Contains(t, factors, "Recent upgrade: 2.00 → 4.00 (positive engagement)")
	for _, f := range factors {
		assert.NotContains(t, f, "DOWNGRADE")
	}
}

// Платежи от новых к старым: success, failed, declined, failed.
// Самый старый платёж неуспешен, поэтому шаблон «заплатил один раз» не срабатывает,
// но три последних платежа дают 2/3 неудач и оценка всё равно не ниже high.
func TestScore_EndToEnd_NewestFirstHistory(t *testing.T) {
	e := newTestEngine(t)
	h := History{User: oldUser(1), Payments: paymentsNewestFirst(8, paid, fail, decl, fail)}

	s := e.Signals(h)
	assert.InDelta(t, 0.667, s.RecentFailureRate, 1e-3)
	assert.InDelta(t, 0.333, s.RecentFailureRate*DefaultRecentFailureWeight, 1e-3)
	assert.Equal(t, PatternNone, s.Pattern)

	score := mustScore(t, e, h)
	assert.GreaterOrEqual(t, score, 0.40)
	assert.Contains(t, []models.RiskLevel{models.RiskHigh, models.RiskCritical}, e.Classify(score))
}

// Та же последовательность в хронологическом порядке: первый платёж прошёл,
// затем отказы — срабатывает основной шаблон с бонусом 0.8.
func TestScore_EndToEnd_PayOnceThenDecline(t *testing.T) {
	e := newTestEngine(t)
	h := History{User: oldUser(1), Payments: paymentsNewestFirst(8, fail, decl, fail, paid)}

	s := e.Signals(h)
	assert.Equal(t, PatternPayOnceThenDecline, s.Pattern)
	assert.InDelta(t, 0.08, s.PatternBonus*DefaultPatternWeight, 1e-9)

	score := mustScore(t, e, h)
	assert.GreaterOrEqual(t, score, 0.40)
	assert.Contains(t, mustExplain(t, e, h), FactorClassicPattern)
}

func TestExplain_Order(t *testing.T) {
	e := newTestEngine(t)
	h := History{
		User:     userCreated(1, testNow.AddDate(0, 0, -10)),
		Payments: withAmounts(paymentsNewestFirst(0, fail, fail, paid, paid, paid), 2, 2, 9, 9, 9),
	}

	want := []string{
		"High failure rate on recent payments (66.7%)",
		"Failed 2/3 of last payments",
		FactorEarlySuccess,
		"DOWNGRADE DETECTED: 9.00 → 2.00 (departure signal)",
		"Low cost subscription (2.00) - high departure risk",
		"Overall failure rate: 40.0%",
		FactorNewAccount,
		FactorConsecutiveFailures,
	}
	assert.Equal(t, want, mustExplain(t, e, h))
}

func TestExplain_Sentinels(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		payments []models.Payment
		want     []string
	}{
		{name: "no payments", payments: nil, want: []string{FactorNoHistory}},
		{name: "single payment", payments: paymentsNewestFirst(1, fail), want: []string{FactorInsufficientHistory}},
		{name: "healthy user", payments: paymentsNewestFirst(20, paid, paid, paid, paid), want: []string{FactorLowRisk}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustExplain(t, e, History{User: oldUser(1), Payments: tt.payments}))
		})
	}
}

func TestExplain_ConsistentWithScore(t *testing.T) {
	e := newTestEngine(t)
	h := History{User: oldUser(1), Payments: paymentsNewestFirst(20, paid, paid, paid)}

	a, found := e.Assess(h)
	require.True(t, found)
	assert.Equal(t, models.RiskLow, a.Level)
	assert.Equal(t, []string{FactorLowRisk}, a.Factors)
	assert.Equal(t, Recommendations(models.RiskLow), a.Recommendations)
}

func TestEngine_UnknownUser(t *testing.T) {
	e := newTestEngine(t)

	h := History{Payments: paymentsNewestFirst(5, fail, fail, fail)}

	_, found := e.Assess(h)
	assert.False(t, found)

	score, found := e.Score(h)
	assert.False(t, found)
	assert.Equal(t, 0.0, score)

	factors, found := e.Explain(h)
	assert.False(t, found)
	assert.Nil(t, factors)
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		level models.RiskLevel
		count int
	}{
		{level: models.RiskCritical, count: 4},
		{level: models.RiskHigh, count: 4},
		{level: models.RiskMedium, count: 3},
		{level: models.RiskLow, count: 2},
	}
	for _, tt := range tests {
		assert.Len(t, Recommendations(tt.level), tt.count, "level=%s", tt.level)
	}

	assert.Equal(t, []string{DefaultRecommendation}, Recommendations("unknown"))
	assert.Equal(t, "Immediate contact required for payment method verification", Recommendations(models.RiskCritical)[0])

	recs := Recommendations(models.RiskLow)
	recs[0] = "changed"
	assert.Equal(t, "Continue standard monitoring", Recommendations(models.RiskLow)[0])
}
