// Package services публикует алерты о рискованных пользователях в RabbitMQ.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/risk-monitor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/metrics"
	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

// Analyzer возвращает подробный анализ риска пользователя.
type Analyzer interface {
	AnalyzeUser(ctx context.Context, userID int64) (*models.UserRiskAnalysis, error)
}

// AlertService собирает алерт из анализа и публикует его в обменник с ключом, равным уровню риска.
type AlertService struct {
	analyzer Analyzer
	ch       rabbitmq.Channel
	exchange string
	log      *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewAlertService создаёт сервис алертов.
func NewAlertService(analyzer Analyzer, ch rabbitmq.Channel, exchange string, log *slog.Logger) *AlertService {
	return &AlertService{
		analyzer: analyzer,
		ch:       ch,
		exchange: exchange,
		log:      log,
		now:      time.Now,
	}
}

// Send анализирует пользователя и публикует алерт. Ошибки анализа, включая
// models.ErrUserNotFound, возвращаются обёрнутыми.
func (s *AlertService) Send(ctx context.Context, userID int64) (*models.RiskAlert, error) {
	const op = "services.alert.Send"

	analysis, err := s.analyzer.AnalyzeUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	alert := s.Build(analysis)
	if err = s.Publish(ctx, alert); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &alert, nil
}

// Build собирает алерт с новым идентификатором.
func (s *AlertService) Build(analysis *models.UserRiskAnalysis) models.RiskAlert {
	return models.RiskAlert{
		ID:              uuid.NewString(),
		UserID:          analysis.UserID,
		UserName:        analysis.UserName,
		UserEmail:       analysis.UserEmail,
		RiskScore:       analysis.RiskScore,
		RiskLevel:       analysis.RiskLevel,
		RiskFactors:     analysis.RiskFactors,
		Recommendations: analysis.Recommendations,
		CreatedAt:       s.now().UTC(),
	}
}

// Publish отправляет алерт в брокер.
func (s *AlertService) Publish(ctx context.Context, alert models.RiskAlert) error {
	const op = "services.alert.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	s.mu.Lock()
	err := rabbitmq.PublishMessage(s.ch, s.exchange, string(alert.RiskLevel), alert)
	s.mu.Unlock()

	level := string(alert.RiskLevel)
	if err != nil {
		metrics.AlertsPublishedTotal.WithLabelValues(level, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.AlertsPublishedTotal.WithLabelValues(level, "ok").Inc()

	s.log.Info("risk alert published",
		sl.Op(op),
		slog.String("alert_id", alert.ID),
		sl.UserID(alert.UserID),
		slog.String("risk_level", level),
		slog.Float64("risk_score", alert.RiskScore),
	)
	return nil
}
