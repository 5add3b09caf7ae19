package models

import "errors"

var (
	// ErrUserNotFound возвращается, если пользователя с таким ID нет.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRecord возвращается, если запись из хранилища нарушает инварианты модели.
	ErrInvalidRecord = errors.New("invalid record")
)
