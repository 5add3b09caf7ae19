// Package services содержит рассылку писем по алертам о рискованных пользователях.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/risk-monitor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/smtp"
	"github.com/magabrotheeeer/risk-monitor/internal/metrics"
	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

// NotifierService отправляет письмо команде риска на каждый алерт из очереди.
type NotifierService struct {
	transport  smtp.TransportInterface
	recipients []string
	log        *slog.Logger
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(transport smtp.TransportInterface, recipients []string, log *slog.Logger) *NotifierService {
	return &NotifierService{
		transport:  transport,
		recipients: recipients,
		log:        log,
	}
}

// HandleAlert разбирает алерт из тела сообщения и отправляет письмо.
// Нечитаемое сообщение помечается rabbitmq.ErrMalformed.
func (s *NotifierService) HandleAlert(body []byte) error {
	const op = "services.notifier.HandleAlert"

	var alert models.RiskAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrMalformed, err)
	}
	if alert.UserID <= 0 || alert.RiskLevel == "" {
		return fmt.Errorf("%s: %w: missing user or level", op, rabbitmq.ErrMalformed)
	}

	level := string(alert.RiskLevel)
	if err := s.sendEmail(s.recipients, Subject(alert), Body(alert)); err != nil {
		metrics.NotificationsTotal.WithLabelValues(level, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsTotal.WithLabelValues(level, "ok").Inc()

	s.log.Info("risk alert notification sent",
		sl.Op(op),
		slog.String("alert_id", alert.ID),
		sl.UserID(alert.UserID),
		slog.String("risk_level", level),
	)
	return nil
}

// Subject возвращает тему письма по алерту.
func Subject(alert models.RiskAlert) string {
	return fmt.Sprintf("[risk-monitor] %s risk: user %d (%.0f%%)",
		strings.ToUpper(string(alert.RiskLevel)), alert.UserID, alert.RiskScore*100)
}

// Body возвращает текст письма по алерту.
func Body(alert models.RiskAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Пользователь: %s <%s> (id %d)\n", alert.UserName, alert.UserEmail, alert.UserID)
	fmt.Fprintf(&b, "Оценка риска: %.2f, уровень: %s\n", alert.RiskScore, alert.RiskLevel)
	fmt.Fprintf(&b, "Алерт: %s от %s\n", alert.ID, alert.CreatedAt.Format(time.RFC3339))

	writeList(&b, "Факторы риска", alert.RiskFactors)
	writeList(&b, "Рекомендации", alert.Recommendations)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func (s *NotifierService) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err = client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err = client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	return client.Quit()
}
