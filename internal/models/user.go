package models

import "time"

// User учётная запись пользователя.
type User struct {
	ID           string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	PasswordHash string    // Хэш пароля пользователя
	CreatedAt    time.Time // Дата регистрации
}

// RegisterRequest запрос регистрации. NodeIdentifier и ReferralCode опциональны.
type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	DisplayName    string `json:"display_name" validate:"required,max=64"`
	ReferralCode   string `json:"referral_code,omitempty" validate:"omitempty,alphanum"`
	NodeIdentifier string `json:"node_identifier,omitempty"`
}

// LoginRequest запрос входа.
type LoginRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	NodeIdentifier string `json:"node_identifier,omitempty"`
}

// AuthResult результат регистрации или входа.
type AuthResult struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}
