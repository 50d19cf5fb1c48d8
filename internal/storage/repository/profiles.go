package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

const profileColumns = `id, user_id, display_name, created_at, last_seen, opt_in, speedtest_result`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p        models.Profile
		lastSeen sql.NullTime
		optIn    sql.NullBool
		speed    sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.CreatedAt, &lastSeen, &optIn, &speed); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		p.LastSeen = &lastSeen.Time
	}
	if optIn.Valid {
		p.OptIn = &optIn.Bool
	}
	if speed.Valid {
		p.SpeedtestResult = &speed.Float64
	}
	return &p, nil
}

// GetProfile возвращает профиль пользователя.
func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}

// ListProfiles возвращает профили указанных пользователей.
func (s *Storage) ListProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	const op = "storage.ListProfiles"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id::text = ANY($1)`
	rows, err := s.DB.QueryContext(ctx, query, userIDs)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateDisplayName меняет отображаемое имя пользователя.
func (s *Storage) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	const op = "storage.UpdateDisplayName"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE profiles SET display_name = $2 WHERE user_id = $1`, userID, displayName)
	if err != nil {
		return mapError(op, err)
	}
	return expectAffected(op, res)
}

// UpdateProfileMetadata обновляет служебные поля профиля, которые пишет фоновая синхронизация.
// Nil-поля OptIn и SpeedtestResult сохраняют прежние значения.
func (s *Storage) UpdateProfileMetadata(ctx context.Context, userID string, meta models.ProfileMetadata) error {
	const op = "storage.UpdateProfileMetadata"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE profiles
			  SET last_seen = $2,
			      opt_in = COALESCE($3, opt_in),
			      speedtest_result = COALESCE($4, speedtest_result)
			  WHERE user_id = $1`
	res, err := s.DB.ExecContext(ctx, query, userID, meta.LastSeen, meta.OptIn, meta.SpeedtestResult)
	if err != nil {
		return mapError(op, err)
	}
	return expectAffected(op, res)
}

func expectAffected(op string, res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}
