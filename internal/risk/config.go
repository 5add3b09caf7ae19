// Package risk реализует детерминированный движок оценки риска неплатежа
// и оттока для держателей подписок.
//
// Движок не знает, как хранятся записи: он получает историю платежей и подписок
// пользователя в виде обычных срезов, один раз вычисляет набор сигналов (Signals)
// и из них же получает итоговую оценку, уровень риска, пояснения и рекомендации.
// Поэтому пояснения всегда согласованы с оценкой.
//
// Engine неизменяем после создания и безопасен для конкурентного использования.
package risk

import (
	"errors"
	"fmt"
)

// Веса факторов по умолчанию. В сумме дают 1.0.
const (
	DefaultRecentFailureWeight  = 0.50
	DefaultAmountWeight         = 0.20
	DefaultOverallFailureWeight = 0.15
	DefaultAccountAgeWeight     = 0.05
	DefaultPatternWeight        = 0.10
)

// Пороги классификации по умолчанию.
const (
	DefaultMediumThreshold   = 0.20
	DefaultHighThreshold     = 0.40
	DefaultCriticalThreshold = 0.70
)

// Параметры выборки рискованных пользователей по умолчанию.
const (
	DefaultMinScore = DefaultHighThreshold
	DefaultLimit    = 100
	DefaultWorkers  = 8
)

// ErrInvalidConfig возвращается, если конфигурация движка противоречива.
var ErrInvalidConfig = errors.New("invalid risk config")

// Weights задаёт вклад каждого фактора в итоговую оценку.
type Weights struct {
	RecentFailure  float64 `yaml:"recent_failure" env-default:"0.50"`
	Amount         float64 `yaml:"amount" env-default:"0.20"`
	OverallFailure float64 `yaml:"overall_failure" env-default:"0.15"`
	AccountAge     float64 `yaml:"account_age" env-default:"0.05"`
	Pattern        float64 `yaml:"pattern" env-default:"0.10"`
}

// Thresholds задаёт нижние границы уровней medium, high и critical.
type Thresholds struct {
	Medium   float64 `yaml:"medium" env-default:"0.20"`
	High     float64 `yaml:"high" env-default:"0.40"`
	Critical float64 `yaml:"critical" env-default:"0.70"`
}

// Config — неизменяемая конфигурация движка, передаётся в New.
type Config struct {
	Weights    Weights    `yaml:"weights"`
	Thresholds Thresholds `yaml:"thresholds"`
	// Workers ограничивает число горутин при оценке популяции.
	Workers int `yaml:"workers" env-default:"8"`
}

// DefaultConfig возвращает конфигурацию с весами и порогами по умолчанию.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			RecentFailure:  DefaultRecentFailureWeight,
			Amount:         DefaultAmountWeight,
			OverallFailure: DefaultOverallFailureWeight,
			AccountAge:     DefaultAccountAgeWeight,
			Pattern:        DefaultPatternWeight,
		},
		Thresholds: Thresholds{
			Medium:   DefaultMediumThreshold,
			High:     DefaultHighThreshold,
			Critical: DefaultCriticalThreshold,
		},
		Workers: DefaultWorkers,
	}
}

// Validate проверяет, что веса неотрицательны, а пороги строго возрастают в (0, 1].
func (c Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"recent_failure":  w.RecentFailure,
		"amount":          w.Amount,
		"overall_failure": w.OverallFailure,
		"account_age":     w.AccountAge,
		"pattern":         w.Pattern,
	} {
		if v < 0 {
			return fmt.Errorf("%w: weight %s is negative", ErrInvalidConfig, name)
		}
	}

	t := c.Thresholds
	if t.Medium <= 0 || t.Critical > 1 {
		return fmt.Errorf("%w: thresholds must lie in (0, 1]", ErrInvalidConfig)
	}
	if !(t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("%w: thresholds must be strictly ascending (medium < high < critical)", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return nil
}
