package repository

import (
	"context"
	"fmt"

	"github.com/idleforest/idleforest/internal/models"
)

// RegisterUser в одной транзакции создаёт пользователя и его профиль, возвращает ID пользователя.
// Повторная регистрация с тем же email возвращает storage.ErrAlreadyExists.
func (s *Storage) RegisterUser(ctx context.Context, user models.User, displayName string) (string, error) {
	const op = "storage.RegisterUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var newID string
	query := `INSERT INTO users (email, password_hash)
			  VALUES ($1, $2)
			  RETURNING id`
	if err = tx.QueryRowContext(ctx, query, user.Email, user.PasswordHash).Scan(&newID); err != nil {
		return "", mapError(op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, display_name) VALUES ($1, $2)`,
		newID, displayName); err != nil {
		return "", mapError(op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, email, password_hash, created_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	if err := s.DB.QueryRowContext(ctx, query, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}
