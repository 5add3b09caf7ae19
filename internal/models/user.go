// Package models содержит доменные структуры сервиса мониторинга рисков:
// пользователя, подписку, платёж, а также результаты оценки риска.
// Структуры используются в бизнес‑логике, хранилище и HTTP‑ответах.
package models

import "time"

// User представляет держателя подписки.
type User struct {
	ID        int64     `json:"id" validate:"required,gt=0"`     // Идентификатор пользователя
	Name      string    `json:"name" validate:"required"`        // Отображаемое имя
	Email     string    `json:"email" validate:"required,email"` // Электронная почта
	CreatedAt time.Time `json:"created_at" validate:"required"`  // Дата регистрации
	IsActive  bool      `json:"is_active"`                       // Активна ли учётная запись
}
