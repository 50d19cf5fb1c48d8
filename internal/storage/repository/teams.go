package repository

import (
	"context"
	"fmt"

	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

// ListTeams возвращает все команды вместе с участниками.
func (s *Storage) ListTeams(ctx context.Context) ([]models.Team, error) {
	const op = "storage.ListTeams"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, created_by, total_points, created_at FROM teams ORDER BY created_at`)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var teams []models.Team
	index := make(map[string]int)
	for rows.Next() {
		var t models.Team
		if err = rows.Scan(&t.ID, &t.Name, &t.CreatedBy, &t.TotalPoints, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.Members = []models.TeamMember{}
		index[t.ID] = len(teams)
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	members, err := s.listMembers(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, m := range members {
		if i, ok := index[m.TeamID]; ok {
			teams[i].Members = append(teams[i].Members, m)
		}
	}
	return teams, nil
}

// GetTeam возвращает команду по ID вместе с участниками.
func (s *Storage) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	const op = "storage.GetTeam"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var t models.Team
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, created_by, total_points, created_at FROM teams WHERE id = $1`, teamID).
		Scan(&t.ID, &t.Name, &t.CreatedBy, &t.TotalPoints, &t.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}

	t.Members, err = s.listMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}

// GetTeamIDByUser возвращает ID команды, в которой состоит пользователь.
func (s *Storage) GetTeamIDByUser(ctx context.Context, userID string) (string, error) {
	const op = "storage.GetTeamIDByUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var teamID string
	if err := s.DB.QueryRowContext(ctx,
		`SELECT team_id FROM team_members WHERE user_id = $1`, userID).Scan(&teamID); err != nil {
		return "", mapError(op, err)
	}
	return teamID, nil
}

func (s *Storage) listMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	query := `SELECT id, team_id, user_id, joined_at, initial_requests FROM team_members`
	var args []any
	if teamID != "" {
		query += ` WHERE team_id = $1`
		args = append(args, teamID)
	}
	query += ` ORDER BY joined_at`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	members := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		if err = rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.JoinedAt, &m.InitialRequests); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateTeam создаёт команду и добавляет в неё создателя. Возвращает ID команды.
// Пользователь может состоять только в одной команде.
func (s *Storage) CreateTeam(ctx context.Context, name, userID string, initialRequests int64) (string, error) {
	const op = "storage.CreateTeam"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var teamID string
	if err = tx.QueryRowContext(ctx,
		`INSERT INTO teams (name, created_by, total_points) VALUES ($1, $2, 0) RETURNING id`,
		name, userID).Scan(&teamID); err != nil {
		return "", mapError(op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, initial_requests) VALUES ($1, $2, $3)`,
		teamID, userID, initialRequests); err != nil {
		return "", mapError(op, err)
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return teamID, nil
}

// JoinTeam добавляет пользователя в команду.
func (s *Storage) JoinTeam(ctx context.Context, teamID, userID string, initialRequests int64) error {
	const op = "storage.JoinTeam"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, initial_requests) VALUES ($1, $2, $3)`,
		teamID, userID, initialRequests)
	if err != nil {
		return mapError(op, err)
	}
	return nil
}

// LeaveTeam удаляет пользователя из команды.
func (s *Storage) LeaveTeam(ctx context.Context, teamID, userID string) error {
	const op = "storage.LeaveTeam"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return mapError(op, err)
	}
	return expectAffected(op, res)
}

// DeleteTeam удаляет команду и всех её участников. Удалить команду может только создатель.
func (s *Storage) DeleteTeam(ctx context.Context, teamID, userID string) error {
	const op = "storage.DeleteTeam"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var createdBy string
	err = tx.QueryRowContext(ctx,
		`SELECT created_by FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&createdBy)
	if err != nil {
		return mapError(op, err)
	}
	if createdBy != userID {
		return fmt.Errorf("%s: %w", op, storage.ErrForbidden)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return mapError(op, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, teamID); err != nil {
		return mapError(op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

