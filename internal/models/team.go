package models

import "time"

// Team команда пользователей, соревнующихся по количеству запросов.
type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	CreatedAt   time.Time    `json:"created_at"`
	TotalPoints int64        `json:"total_points"`
	CreatedBy   string       `json:"created_by"`
	Members     []TeamMember `json:"team_members"`
}

// TeamMember участник команды.
// InitialRequests фиксирует счётчик узла на момент вступления,
// вклад участника считается от этого значения.
type TeamMember struct {
	ID              string    `json:"id"`
	TeamID          string    `json:"team_id"`
	UserID          string    `json:"user_id"`
	JoinedAt        time.Time `json:"joined_at"`
	InitialRequests int64     `json:"initial_requests"`
	Profile         *Profile  `json:"profiles,omitempty"`
}

// CreateTeamRequest запрос создания команды.
type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,min=3,max=48"`
}
