package risk

import "fmt"

// Пороговые значения, при которых признак попадает в пояснение.
const (
	explainRecentFailureRate  = 0.4
	explainOverallFailureRate = 0.3
	explainLowAmount          = 3.0
	explainNewAccountDays     = 30
)

// Фиксированные формулировки пояснений.
const (
	FactorNoHistory           = "No payment history"
	FactorInsufficientHistory = "Insufficient payment history"
	FactorLowRisk             = "Low risk profile"
	FactorClassicPattern      = "Classic pattern: paid initially, then declined subsequent payments"
	FactorEarlySuccess        = "Early success followed by recent payment failures"
	FactorNewAccount          = "New account (less than 30 days)"
	FactorConsecutiveFailures = "Multiple consecutive recent failures"
)

// explain строит упорядоченный список причин по тем же сигналам, что и оценка.
// Порядок фиксирован и не зависит от «тяжести» причины.
func explain(s Signals) []string {
	switch {
	case s.PaymentCount == 0:
		return []string{FactorNoHistory}
	case !s.Sufficient:
		return []string{FactorInsufficientHistory}
	}

	var factors []string

	if s.RecentFailureRate > explainRecentFailureRate {
		factors = append(factors,
			fmt.Sprintf("High failure rate on recent payments (%s)", percent(s.RecentFailureRate)),
			fmt.Sprintf("Failed %d/%d of last payments", s.RecentFailed, s.RecentCount),
		)
	}

	switch s.Pattern {
	case PatternPayOnceThenDecline:
		factors = append(factors, FactorClassicPattern)
	case PatternEarlySuccessRecentFailure:
		factors = append(factors, FactorEarlySuccess)
	}

	switch s.AmountChange {
	case AmountDowngrade:
		factors = append(factors, fmt.Sprintf("DOWNGRADE DETECTED: %.2f → %.2f (departure signal)", s.OldAverage, s.CurrentAmount))
	case AmountUpgrade:
		factors = append(factors, fmt.Sprintf("Recent upgrade: %.2f → %.2f (positive engagement)", s.OldAverage, s.CurrentAmount))
	}

	if s.CurrentAmount <= explainLowAmount {
		factors = append(factors, fmt.Sprintf("Low cost subscription (%.2f) - high departure risk", s.CurrentAmount))
	}

	if s.OverallFailureRate > explainOverallFailureRate {
		factors = append(factors, fmt.Sprintf("Overall failure rate: %s", percent(s.OverallFailureRate)))
	}

	if s.AgeFactor > 0 && s.AccountAgeDays < explainNewAccountDays {
		factors = append(factors, FactorNewAccount)
	}

	if s.ConsecutiveRecentFailures {
		factors = append(factors, FactorConsecutiveFailures)
	}

	if len(factors) == 0 {
		return []string{FactorLowRisk}
	}
	return factors
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
