// Package models содержит доменные структуры Idle Forest: узлы (устройства),
// профили, команды, реферальные коды и события.
package models

import "time"

// Node представляет запись устройства (Device Record) на сервере.
// UserID пишется не более одного раза: после привязки к пользователю
// запись никогда не перепривязывается.
type Node struct {
	NodeIdentifier string    `json:"node_identifier"` // Стабильный идентификатор установки
	UserID         *string   `json:"user_id"`         // Привязанный пользователь, nil если не привязан
	TotalRequests  int64     `json:"total_requests"`  // Накопленный счётчик запросов
	CreatedAt      time.Time `json:"created_at"`
}

// Linked сообщает, привязан ли узел к пользователю.
func (n *Node) Linked() bool {
	return n != nil && n.UserID != nil && *n.UserID != ""
}

// SessionUser пользователь активной сессии.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LinkNodeRequest запрос привязки узла к текущему пользователю.
type LinkNodeRequest struct {
	NodeIdentifier string `json:"node_identifier" validate:"required"`
}
