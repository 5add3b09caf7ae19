package models

import "time"

// RiskLevel — уровень риска, выводимый из итоговой оценки.
type RiskLevel string

// Уровни риска в порядке возрастания.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// UserRiskSummary — строка списка рискованных пользователей.
type UserRiskSummary struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	RiskScore        float64   `json:"risk_score"`
	RiskLevel        RiskLevel `json:"risk_level"`
	FailureRate      float64   `json:"failure_rate"`
	TotalPayments    int       `json:"total_payments"`
	FailedPayments   int       `json:"failed_payments"`
	SubscriptionType string    `json:"subscription_type"`
	MonthlyAmount    float64   `json:"monthly_amount"`
	CreatedAt        time.Time `json:"created_at"`
}

// UserRiskAnalysis — подробный разбор риска одного пользователя.
// PaymentHistory содержит не более десяти последних платежей, от новых к старым.
type UserRiskAnalysis struct {
	UserID               int64          `json:"user_id"`
	UserName             string         `json:"user_name"`
	UserEmail            string         `json:"user_email"`
	RiskScore            float64        `json:"risk_score"`
	RiskLevel            RiskLevel      `json:"risk_level"`
	FailureRate          float64        `json:"failure_rate"`
	TotalPayments        int            `json:"total_payments"`
	FailedPayments       int            `json:"failed_payments"`
	SuccessfulPayments   int            `json:"successful_payments"`
	SubscriptionsHistory []Subscription `json:"subscriptions_history"`
	PaymentHistory       []Payment      `json:"payment_history"`
	RiskFactors          []string       `json:"risk_factors"`
	Recommendations      []string       `json:"recommendations"`
}

// SystemStats — агрегированная статистика по всей базе пользователей.
type SystemStats struct {
	TotalUsers         int     `json:"total_users"`
	HighRiskUsers      int     `json:"high_risk_users"`
	TotalPayments      int     `json:"total_payments"`
	FailedPayments     int     `json:"failed_payments"`
	OverallFailureRate float64 `json:"overall_failure_rate"`
	AvgRiskScore       float64 `json:"avg_risk_score"`
	RiskPercentage     float64 `json:"risk_percentage"`
}

// RiskAlert — сообщение об опасном пользователе, публикуемое в очередь уведомлений.
type RiskAlert struct {
	ID              string    `json:"id"`
	UserID          int64     `json:"user_id"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskFactors     []string  `json:"risk_factors"`
	Recommendations []string  `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}
