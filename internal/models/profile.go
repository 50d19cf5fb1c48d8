package models

import "time"

// Profile публичный профиль пользователя.
type Profile struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	DisplayName     string     `json:"display_name"`
	CreatedAt       time.Time  `json:"created_at"`
	LastSeen        *time.Time `json:"last_seen,omitempty"`
	OptIn           *bool      `json:"opt_in,omitempty"`
	SpeedtestResult *float64   `json:"speedtest_result,omitempty"`
}

// ProfileMetadata набор полей, которые фоновая синхронизация обновляет в профиле.
// Nil-поля не изменяются.
type ProfileMetadata struct {
	LastSeen        time.Time
	OptIn           *bool
	SpeedtestResult *float64
}

// UpdateProfileRequest запрос изменения профиля.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=64"`
}
