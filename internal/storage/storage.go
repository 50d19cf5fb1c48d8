// Package storage содержит ошибки уровня хранилища, общие для всех репозиториев.
package storage

import "errors"

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden операция запрещена для данного пользователя.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidReferral реферальный код нельзя применить (например, свой собственный).
	ErrInvalidReferral = errors.New("invalid referral")
)
