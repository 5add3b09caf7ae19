// Package services содержит планировщик, который периодически ищет пользователей
// с критическим риском и рассылает по ним алерты.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

// Ranker возвращает пользователей с оценкой не ниже minScore и сбрасывает их кэшированный анализ.
type Ranker interface {
	RiskyUsers(ctx context.Context, minScore float64, limit int) ([]models.UserRiskSummary, error)
	Invalidate(ctx context.Context, userIDs ...int64) error
}

// AlertSender публикует алерт по пользователю.
type AlertSender interface {
	Send(ctx context.Context, userID int64) (*models.RiskAlert, error)
}

// SchedulerService рассылает алерты по пользователям с оценкой не ниже порога.
type SchedulerService struct {
	ranker    Ranker
	alerts    AlertSender
	log       *slog.Logger
	threshold float64
	limit     int
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(ranker Ranker, alerts AlertSender, threshold float64, limit int, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		ranker:    ranker,
		alerts:    alerts,
		log:       log,
		threshold: threshold,
		limit:     limit,
	}
}

// Run выполняет проход сразу и затем каждые interval, пока не отменён ctx.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход и возвращает число опубликованных алертов.
// Ошибка по одному пользователю не прерывает рассылку остальным.
func (s *SchedulerService) RunOnce(ctx context.Context) int {
	const op = "services.scheduler.RunOnce"
	log := s.log.With(sl.Op(op))

	log.Info("starting search for high risk users", slog.Float64("threshold", s.threshold))
	users, err := s.ranker.RiskyUsers(ctx, s.threshold, s.limit)
	if err != nil {
		log.Error("failed to rank users", sl.Err(err))
		return 0
	}
	if len(users) == 0 {
		log.Info("no high risk users found")
		return 0
	}
	log.Info("found high risk users", slog.Int("count", len(users)))

	// алерт строится по анализу из кэша, поэтому сбрасываем его до рассылки
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	if err = s.ranker.Invalidate(ctx, ids...); err != nil {
		log.Warn("failed to invalidate cached analysis", sl.Err(err))
	}

	sent := 0
	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		if _, err = s.alerts.Send(ctx, u.ID); err != nil {
			if errors.Is(err, models.ErrUserNotFound) {
				log.Warn("user disappeared before alert", sl.UserID(u.ID))
				continue
			}
			log.Error("failed to send alert", sl.UserID(u.ID), sl.Err(err))
			continue
		}
		sent++
	}
	log.Info("alerts sent", slog.Int("sent", sent), slog.Int("found", len(users)))
	return sent
}
