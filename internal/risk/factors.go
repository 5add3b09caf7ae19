package risk

import (
	"math"
	"sort"
	"time"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

const (
	recentWindow = 3 // сколько последних платежей считаются «недавними»
	minPayments  = 2 // меньше — недостаточно данных, оценка 0

	oldWindowStart = 2 // окно «старых» платежей: позиции [2:5) от новых к старым
	oldWindowEnd   = 5

	downgradeRatio = 0.7 // текущая сумма ниже среднего на 30% и более
	upgradeRatio   = 1.5 // текущая сумма выше среднего на 50% и более
	downgradeBonus = 0.9
	upgradeBonus   = -0.1

	amountEpsilon = 1e-9 // допуск сравнения сумм на границах 30% и 50%

	payOnceThenDeclineBonus = 0.8
	earlySuccessLateFailure = 0.5
)

// AmountChange описывает изменение суммы платежа относительно старого окна.
type AmountChange int

// Возможные изменения суммы.
const (
	AmountUnchanged AmountChange = iota
	AmountDowngrade
	AmountUpgrade
)

// Pattern описывает распознанную форму истории платежей.
type Pattern int

// Шаблоны в порядке приоритета.
const (
	PatternNone Pattern = iota
	// PatternPayOnceThenDecline: первый платёж прошёл, затем минимум два из трёх следующих не прошли.
	PatternPayOnceThenDecline
	// PatternEarlySuccessRecentFailure: ранние платежи в основном успешны, последние в основном нет.
	PatternEarlySuccessRecentFailure
)

// newestFirst возвращает копию платежей, отсортированную от новых к старым.
// Платежи с одинаковой датой сохраняют исходный порядок.
func newestFirst(payments []models.Payment) []models.Payment {
	sorted := make([]models.Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PaymentDate.After(sorted[j].PaymentDate)
	})
	return sorted
}

// oldestFirst возвращает копию платежей, отсортированную от старых к новым.
func oldestFirst(payments []models.Payment) []models.Payment {
	sorted := make([]models.Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PaymentDate.Before(sorted[j].PaymentDate)
	})
	return sorted
}

func countFailed(payments []models.Payment) int {
	n := 0
	for _, p := range payments {
		if p.IsFailed() {
			n++
		}
	}
	return n
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// recentFailureRate считает долю неудач среди трёх последних платежей.
// newest должен быть отсортирован от новых к старым.
// При истории короче двух платежей возвращает 0.
func recentFailureRate(newest []models.Payment) (rate float64, failed, selected int) {
	if len(newest) < minPayments {
		return 0, 0, 0
	}
	recent := newest[:min(recentWindow, len(newest))]
	failed = countFailed(recent)
	return ratio(failed, len(recent)), failed, len(recent)
}

// overallFailureRate считает долю неудач по всей истории.
func overallFailureRate(payments []models.Payment) float64 {
	return ratio(countFailed(payments), len(payments))
}

// accountAgeDays возвращает возраст учётной записи в полных днях.
func accountAgeDays(createdAt, now time.Time) int {
	return int(math.Floor(now.Sub(createdAt).Hours() / 24))
}

// accountAgeFactor — ступенчатая функция: чем моложе учётная запись, тем выше риск.
func accountAgeFactor(days int) float64 {
	switch {
	case days < 30:
		return 0.8
	case days < 90:
		return 0.5
	case days < 180:
		return 0.3
	default:
		return 0.1
	}
}

// amountTierBase переводит текущую сумму в базовый риск:
// дешёвые подписки чаще уходят.
func amountTierBase(amount float64) float64 {
	switch {
	case amount <= 1.2:
		return 1.0
	case amount <= 3:
		return 0.7
	case amount <= 6:
		return 0.4
	case amount <= 10:
		return 0.2
	default:
		return 0.1
	}
}

// detectAmountChange сравнивает сумму последнего платежа со средним по окну [2:5).
// Обе границы включительные: падение ровно на 30% уже понижение, рост ровно на 50% уже повышение.
// Окно берётся по всем платежам пользователя, без учёта границ подписок.
func detectAmountChange(newest []models.Payment) (change AmountChange, current, oldAvg float64) {
	if len(newest) == 0 {
		return AmountUnchanged, 0, 0
	}
	current = newest[0].Amount
	if len(newest) <= oldWindowStart {
		return AmountUnchanged, current, 0
	}

	old := newest[oldWindowStart:min(oldWindowEnd, len(newest))]
	var sum float64
	for _, p := range old {
		sum += p.Amount
	}
	oldAvg = sum / float64(len(old))

	switch {
	case current == oldAvg:
		return AmountUnchanged, current, oldAvg
	case current <= oldAvg*downgradeRatio+amountEpsilon:
		return AmountDowngrade, current, oldAvg
	case current >= oldAvg*upgradeRatio-amountEpsilon:
		return AmountUpgrade, current, oldAvg
	default:
		return AmountUnchanged, current, oldAvg
	}
}

// amountFactor объединяет базовый риск по сумме и поправку за смену тарифа.
func amountFactor(newest []models.Payment) float64 {
	if len(newest) == 0 {
		return 0
	}
	change, current, _ := detectAmountChange(newest)

	bonus := 0.0
	switch change {
	case AmountDowngrade:
		bonus = downgradeBonus
	case AmountUpgrade:
		bonus = upgradeBonus
	}
	return clamp(amountTierBase(current)+bonus, 0, 1)
}

// detectPattern ищет шаблон «заплатил один раз, потом отказы».
// oldest должен быть отсортирован от старых к новым. Срабатывает первое совпавшее правило.
func detectPattern(oldest []models.Payment) (Pattern, float64) {
	if len(oldest) < 3 {
		return PatternNone, 0
	}

	next := oldest[1:min(4, len(oldest))]
	if oldest[0].IsSuccessful() && countFailed(next) >= 2 {
		return PatternPayOnceThenDecline, payOnceThenDeclineBonus
	}

	if len(oldest) >= 4 {
		early := oldest[:2]
		late := oldest[len(oldest)-2:]
		earlySuccess := ratio(len(early)-countFailed(early), len(early))
		lateFailure := ratio(countFailed(late), len(late))
		if earlySuccess >= 0.5 && lateFailure >= 0.5 {
			return PatternEarlySuccessRecentFailure, earlySuccessLateFailure
		}
	}
	return PatternNone, 0
}

// consecutiveRecentFailures сообщает, что оба последних платежа не прошли.
func consecutiveRecentFailures(newest []models.Payment) bool {
	if len(newest) < 2 {
		return false
	}
	return newest[0].IsFailed() && newest[1].IsFailed()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
