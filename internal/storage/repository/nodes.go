package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

// GetNode возвращает запись устройства по идентификатору.
func (s *Storage) GetNode(ctx context.Context, nodeID string) (*models.Node, error) {
	const op = "storage.GetNode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT node_identifier, user_id, total_requests, created_at
			  FROM nodes
			  WHERE node_identifier = $1`
	var (
		n      models.Node
		userID sql.NullString
	)
	if err := s.DB.QueryRowContext(ctx, query, nodeID).
		Scan(&n.NodeIdentifier, &userID, &n.TotalRequests, &n.CreatedAt); err != nil {
		return nil, mapError(op, err)
	}
	if userID.Valid {
		n.UserID = &userID.String
	}
	return &n, nil
}

// CreateNode создаёт запись устройства. Если запись уже существует,
// возвращает storage.ErrAlreadyExists и ничего не меняет.
func (s *Storage) CreateNode(ctx context.Context, node models.Node) error {
	const op = "storage.CreateNode"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO nodes (node_identifier, user_id, total_requests, created_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (node_identifier) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query,
		node.NodeIdentifier, node.UserID, node.TotalRequests, node.CreatedAt)
	if err != nil {
		return mapError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	return nil
}

// SetNodeUser привязывает устройство к пользователю, только если привязки ещё нет.
// Возвращает true, если строка была обновлена.
func (s *Storage) SetNodeUser(ctx context.Context, nodeID, userID string) (bool, error) {
	const op = "storage.SetNodeUser"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	query := `UPDATE nodes
			  SET user_id = $2
			  WHERE node_identifier = $1 AND user_id IS NULL`
	res, err := s.DB.ExecContext(ctx, query, nodeID, userID)
	if err != nil {
		return false, mapError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

// UpdateNodeRequests записывает накопленный счётчик запросов устройства.
func (s *Storage) UpdateNodeRequests(ctx context.Context, nodeID string, totalRequests int64) error {
	const op = "storage.UpdateNodeRequests"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE nodes SET total_requests = $2 WHERE node_identifier = $1`
	res, err := s.DB.ExecContext(ctx, query, nodeID, totalRequests)
	if err != nil {
		return mapError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}

// SumUserRequests возвращает суммарный счётчик всех устройств пользователя.
func (s *Storage) SumUserRequests(ctx context.Context, userID string) (int64, error) {
	const op = "storage.SumUserRequests"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var total int64
	query := `SELECT COALESCE(SUM(total_requests), 0) FROM nodes WHERE user_id = $1`
	if err := s.DB.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, mapError(op, err)
	}
	return total, nil
}
