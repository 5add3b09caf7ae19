package models

import "time"

// Статусы платежа. Всё, что не PaymentSuccess, считается неуспешным.
const (
	PaymentSuccess  = "success"
	PaymentFailed   = "failed"
	PaymentDeclined = "declined"
)

// Payment представляет одну попытку списания по подписке.
// UserID денормализован из подписки для быстрых выборок по пользователю.
type Payment struct {
	ID             int64     `json:"id"`
	SubscriptionID int64     `json:"subscription_id" validate:"required,gt=0"`
	UserID         int64     `json:"user_id" validate:"required,gt=0"`
	Amount         float64   `json:"amount" validate:"gt=0"`
	Currency       string    `json:"currency" validate:"required,len=3"`
	Status         string    `json:"status" validate:"required"`
	PaymentDate    time.Time `json:"payment_date" validate:"required"`
	Method         string    `json:"payment_method" validate:"required"`
	FailureReason  *string   `json:"failure_reason,omitempty"` // Заполняется только для неуспешных платежей
}

// IsFailed сообщает, завершился ли платёж неудачей.
// Любой статус, кроме success, включая неизвестные, считается неудачей.
func (p Payment) IsFailed() bool {
	return p.Status != PaymentSuccess
}

// IsSuccessful сообщает, прошёл ли платёж.
func (p Payment) IsSuccessful() bool {
	return p.Status == PaymentSuccess
}
