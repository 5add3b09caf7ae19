// Package services содержит бизнес-логику оценки риска: загрузку истории из хранилища,
// расчёт движком и кэширование подробного анализа.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/risk-monitor/internal/cache"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/metrics"
	"github.com/magabrotheeeer/risk-monitor/internal/models"
	"github.com/magabrotheeeer/risk-monitor/internal/risk"
)

// paymentHistoryLimit ограничивает число платежей в подробном анализе.
const paymentHistoryLimit = 10

// Repository описывает чтение историй из хранилища.
type Repository interface {
	// LoadHistory возвращает историю пользователя или models.ErrUserNotFound.
	LoadHistory(ctx context.Context, userID int64) (risk.History, error)
	// LoadPopulation возвращает истории всех пользователей.
	LoadPopulation(ctx context.Context) ([]risk.History, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// RiskService считает риск по данным хранилища.
type RiskService struct {
	repo     Repository
	engine   *risk.Engine
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

// NewRiskService создаёт сервис. cache может быть nil, тогда анализ не кэшируется.
func NewRiskService(repo Repository, engine *risk.Engine, cache Cache, cacheTTL time.Duration, log *slog.Logger) *RiskService {
	return &RiskService{
		repo:     repo,
		engine:   engine,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Thresholds возвращает пороги уровней риска движка.
func (s *RiskService) Thresholds() risk.Thresholds {
	return s.engine.Config().Thresholds
}

// AnalyzeUser возвращает подробный анализ риска пользователя.
func (s *RiskService) AnalyzeUser(ctx context.Context, userID int64) (*models.UserRiskAnalysis, error) {
	const op = "services.risk.AnalyzeUser"
	log := s.log.With(sl.Op(op), sl.UserID(userID))
	defer metrics.Since("analysis", time.Now())

	if cached, ok := s.cached(ctx, log, userID); ok {
		return cached, nil
	}

	h, err := s.repo.LoadHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a, ok := s.engine.Assess(h)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	metrics.ObserveScore(string(a.Level))

	analysis := buildAnalysis(h, a)
	if s.cache != nil {
		if err = s.cache.Set(ctx, cache.AnalysisKey(userID), analysis, s.cacheTTL); err != nil {
			log.Warn("failed to cache analysis", sl.Err(err))
		}
	}
	return analysis, nil
}

func (s *RiskService) cached(ctx context.Context, log *slog.Logger, userID int64) (*models.UserRiskAnalysis, bool) {
	if s.cache == nil {
		return nil, false
	}
	var analysis models.UserRiskAnalysis
	found, err := s.cache.Get(ctx, cache.AnalysisKey(userID), &analysis)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		log.Warn("failed to read cached analysis", sl.Err(err))
		return nil, false
	case !found:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return &analysis, true
	}
}

// Invalidate удаляет кэшированный анализ пользователей.
func (s *RiskService) Invalidate(ctx context.Context, userIDs ...int64) error {
	const op = "services.risk.Invalidate"

	if s.cache == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = cache.AnalysisKey(id)
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RiskyUsers возвращает пользователей с оценкой не ниже minScore, не более limit.
func (s *RiskService) RiskyUsers(ctx context.Context, minScore float64, limit int) ([]models.UserRiskSummary, error) {
	const op = "services.risk.RiskyUsers"
	defer metrics.Since("ranking", time.Now())

	population, err := s.repo.LoadPopulation(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := s.engine.RankRisky(population, minScore, limit)
	for _, r := range result {
		metrics.ObserveScore(string(r.RiskLevel))
	}

	s.log.Debug("risky users ranked",
		sl.Op(op),
		slog.Int("population", len(population)),
		slog.Int("found", len(result)),
	)
	return result, nil
}

// Stats возвращает агрегированную статистику по всем пользователям.
func (s *RiskService) Stats(ctx context.Context) (models.SystemStats, error) {
	const op = "services.risk.Stats"
	defer metrics.Since("stats", time.Now())

	population, err := s.repo.LoadPopulation(ctx)
	if err != nil {
		return models.SystemStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.engine.SystemStats(population), nil
}

func buildAnalysis(h risk.History, a risk.Assessment) *models.UserRiskAnalysis {
	sig := a.Signals

	subs := make([]models.Subscription, len(h.Subscriptions))
	copy(subs, h.Subscriptions)

	payments := make([]models.Payment, len(h.Payments))
	copy(payments, h.Payments)
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].PaymentDate.After(payments[j].PaymentDate)
	})
	if len(payments) > paymentHistoryLimit {
		payments = payments[:paymentHistoryLimit]
	}

	return &models.UserRiskAnalysis{
		UserID:               h.User.ID,
		UserName:             h.User.Name,
		UserEmail:            h.User.Email,
		RiskScore:            a.Score,
		RiskLevel:            a.Level,
		FailureRate:          sig.OverallFailureRate,
		TotalPayments:        sig.PaymentCount,
		FailedPayments:       sig.FailedCount,
		SuccessfulPayments:   sig.PaymentCount - sig.FailedCount,
		SubscriptionsHistory: subs,
		PaymentHistory:       payments,
		RiskFactors:          a.Factors,
		Recommendations:      a.Recommendations,
	}
}
