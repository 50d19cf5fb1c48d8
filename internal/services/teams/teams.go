// Package services содержит бизнес-логику команд: список с кэшированием в Redis,
// создание, вступление, выход и удаление.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/idleforest/idleforest/internal/cache"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/models"
)

// TeamRepository определяет методы для работы с командами в хранилище.
type TeamRepository interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, teamID string) (*models.Team, error)
	GetTeamIDByUser(ctx context.Context, userID string) (string, error)
	CreateTeam(ctx context.Context, name, userID string, initialRequests int64) (string, error)
	JoinTeam(ctx context.Context, teamID, userID string, initialRequests int64) error
	LeaveTeam(ctx context.Context, teamID, userID string) error
	DeleteTeam(ctx context.Context, teamID, userID string) error
}

// ProfileRepository профили участников.
type ProfileRepository interface {
	ListProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error)
}

// UsageRepository суммарный счётчик запросов пользователя.
type UsageRepository interface {
	SumUserRequests(ctx context.Context, userID string) (int64, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кэша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кэш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значения из кэша.
	Invalidate(ctx context.Context, keys ...string) error
}

// TeamService реализует бизнес-логику команд.
type TeamService struct {
	teams    TeamRepository
	profiles ProfileRepository
	usage    UsageRepository
	cache    Cache
	ttl      time.Duration
	log      *slog.Logger
}

// NewTeamService создает новый экземпляр TeamService.
func NewTeamService(teams TeamRepository, profiles ProfileRepository, usage UsageRepository, cache Cache, ttl time.Duration, log *slog.Logger) *TeamService {
	return &TeamService{
		teams:    teams,
		profiles: profiles,
		usage:    usage,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

// List возвращает все команды с участниками и их профилями.
// Результат кэшируется; ошибки кэша не мешают чтению из базы.
func (s *TeamService) List(ctx context.Context) ([]models.Team, error) {
	const op = "teams.List"
	log := s.log.With(slog.String("op", op))

	var cached []models.Team
	found, err := s.cache.Get(ctx, cache.KeyTeams, &cached)
	if err != nil {
		log.Warn("failed to read teams from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	teams, err := s.teams.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.attachProfiles(ctx, teams); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.cache.Set(ctx, cache.KeyTeams, teams, s.ttl); err != nil {
		log.Warn("failed to cache teams", sl.Err(err))
	}
	return teams, nil
}

// Mine возвращает команду пользователя.
func (s *TeamService) Mine(ctx context.Context, userID string) (*models.Team, error) {
	const op = "teams.Mine"
	teamID, err := s.teams.GetTeamIDByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	teams := []models.Team{*team}
	if err = s.attachProfiles(ctx, teams); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &teams[0], nil
}

// Create создаёт команду, создатель становится её первым участником.
func (s *TeamService) Create(ctx context.Context, userID, name string) (string, error) {
	const op = "teams.Create"
	requests, err := s.usage.SumUserRequests(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	teamID, err := s.teams.CreateTeam(ctx, name, userID, requests)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	return teamID, nil
}

// Join добавляет пользователя в команду. Вклад считается от текущего счётчика.
func (s *TeamService) Join(ctx context.Context, teamID, userID string) error {
	const op = "teams.Join"
	requests, err := s.usage.SumUserRequests(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.teams.JoinTeam(ctx, teamID, userID, requests); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	return nil
}

// Leave удаляет пользователя из команды.
func (s *TeamService) Leave(ctx context.Context, teamID, userID string) error {
	const op = "teams.Leave"
	if err := s.teams.LeaveTeam(ctx, teamID, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	return nil
}

// Delete удаляет команду. Доступно только создателю.
func (s *TeamService) Delete(ctx context.Context, teamID, userID string) error {
	const op = "teams.Delete"
	if err := s.teams.DeleteTeam(ctx, teamID, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	return nil
}

func (s *TeamService) invalidate(ctx context.Context, op string) {
	if err := s.cache.Invalidate(ctx, cache.KeyTeams); err != nil {
		s.log.Warn("failed to invalidate teams cache", slog.String("op", op), sl.Err(err))
	}
}

func (s *TeamService) attachProfiles(ctx context.Context, teams []models.Team) error {
	userIDs := lo.Uniq(lo.FlatMap(teams, func(t models.Team, _ int) []string {
		return lo.Map(t.Members, func(m models.TeamMember, _ int) string { return m.UserID })
	}))
	if len(userIDs) == 0 {
		return nil
	}

	profiles, err := s.profiles.ListProfiles(ctx, userIDs)
	if err != nil {
		return err
	}
	byUser := lo.KeyBy(profiles, func(p models.Profile) string { return p.UserID })

	for i := range teams {
		for j := range teams[i].Members {
			if p, ok := byUser[teams[i].Members[j].UserID]; ok {
				teams[i].Members[j].Profile = &p
			}
		}
	}
	return nil
}
