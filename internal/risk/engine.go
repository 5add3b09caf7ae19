package risk

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

// Engine вычисляет оценку риска, уровень, пояснения и рекомендации.
type Engine struct {
	cfg Config
	now func() time.Time
}

// Option настраивает Engine при создании.
type Option func(*Engine)

// WithClock подменяет источник текущего времени. Нужен для воспроизводимых тестов.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New создаёт движок с проверенной конфигурацией.
func New(cfg Config, opts ...Option) (*Engine, error) {
	const op = "risk.New"

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e := &Engine{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config возвращает копию конфигурации движка.
func (e *Engine) Config() Config {
	return e.cfg
}

// Signals вычисляет признаки риска для истории пользователя.
func (e *Engine) Signals(h History) Signals {
	return computeSignals(h, e.now())
}

// Score возвращает оценку риска в диапазоне [0, 1].
// При истории короче двух платежей оценка равна 0.
// Второе значение ложно, если в истории нет пользователя.
func (e *Engine) Score(h History) (float64, bool) {
	if h.User == nil {
		return 0, false
	}
	return e.aggregate(e.Signals(h)), true
}

// aggregate взвешенно суммирует факторы и ограничивает результат сверху единицей.
func (e *Engine) aggregate(s Signals) float64 {
	if !s.Sufficient {
		return 0
	}
	w := e.cfg.Weights
	score := s.RecentFailureRate*w.RecentFailure +
		s.AmountFactor*w.Amount +
		s.OverallFailureRate*w.OverallFailure +
		s.AgeFactor*w.AccountAge +
		s.PatternBonus*w.Pattern

	return clamp(score, 0, 1)
}

// Classify переводит оценку в уровень риска по порогам конфигурации.
func (e *Engine) Classify(score float64) models.RiskLevel {
	t := e.cfg.Thresholds
	switch {
	case score >= t.Critical:
		return models.RiskCritical
	case score >= t.High:
		return models.RiskHigh
	case score >= t.Medium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Explain возвращает человекочитаемые причины оценки.
// Второе значение ложно, если в истории нет пользователя.
func (e *Engine) Explain(h History) ([]string, bool) {
	if h.User == nil {
		return nil, false
	}
	return explain(e.Signals(h)), true
}

// Recommend возвращает рекомендации для уровня риска.
func (e *Engine) Recommend(level models.RiskLevel) []string {
	return Recommendations(level)
}

// Assessment — полный результат оценки одного пользователя.
type Assessment struct {
	Score           float64
	Level           models.RiskLevel
	Factors         []string
	Recommendations []string
	Signals         Signals
}

// Assess оценивает пользователя целиком. Второе значение ложно,
// если в истории нет пользователя: так вызывающий отличает
// «риска нет» от «пользователь не найден».
func (e *Engine) Assess(h History) (Assessment, bool) {
	if h.User == nil {
		return Assessment{}, false
	}
	s := e.Signals(h)
	score := e.aggregate(s)
	level := e.Classify(score)
	return Assessment{
		Score:           score,
		Level:           level,
		Factors:         explain(s),
		Recommendations: Recommendations(level),
		Signals:         s,
	}, true
}
