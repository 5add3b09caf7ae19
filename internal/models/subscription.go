package models

import "time"

// Статусы подписки.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionSuspended = "suspended"
)

// Subscription представляет одну версию тарифа пользователя.
// У пользователя может быть несколько подписок во времени (basic → premium → pro),
// окно действия задаётся полуинтервалом [EffectiveFrom, EffectiveUntil).
type Subscription struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id" validate:"required,gt=0"`
	Type           string    `json:"subscription_type" validate:"required"`
	Status         string    `json:"status" validate:"required,oneof=active cancelled suspended"`
	MonthlyAmount  float64   `json:"monthly_amount" validate:"gt=0"`
	EffectiveFrom  time.Time `json:"effective_from" validate:"required"`
	EffectiveUntil time.Time `json:"effective_until" validate:"required,gtfield=EffectiveFrom"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsCurrent сообщает, действует ли подписка на момент now.
func (s Subscription) IsCurrent(now time.Time) bool {
	return s.Status == SubscriptionActive && s.EffectiveUntil.After(now)
}

// IsExpired сообщает, закончилось ли окно действия подписки.
func (s Subscription) IsExpired(now time.Time) bool {
	return now.After(s.EffectiveUntil)
}
