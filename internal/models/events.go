package models

import "time"

// RoutingKeyUserRegistered ключ маршрутизации события регистрации.
const RoutingKeyUserRegistered = "user.registered"

// UserRegisteredEvent публикуется после успешной регистрации.
type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	ReferralCode string    `json:"referral_code,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}
