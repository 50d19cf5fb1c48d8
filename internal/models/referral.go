package models

import "time"

// ReferralCode персональный код приглашения пользователя.
type ReferralCode struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	Uses      int       `json:"uses"`
}

// ReferralStats агрегированная статистика приглашений.
type ReferralStats struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	TotalReferrals  int       `json:"total_referrals"`
	TotalPoints     int64     `json:"total_points"`
	TotalEarnings   float64   `json:"total_earnings"`
	PendingEarnings float64   `json:"pending_earnings"`
	DonatedAmount   float64   `json:"donated_amount"`
	CreatedAt       time.Time `json:"created_at"`
}
