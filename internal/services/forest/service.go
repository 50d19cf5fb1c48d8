package forest

import (
	"context"
	"fmt"

	"github.com/idleforest/idleforest/internal/models"
)

// StatsFetcher источник глобальной статистики.
type StatsFetcher interface {
	Fetch(ctx context.Context) (*models.GlobalStats, error)
}

// UsageRepository суммарный счётчик запросов пользователя по всем его устройствам.
type UsageRepository interface {
	SumUserRequests(ctx context.Context, userID string) (int64, error)
}

// Service считает показатели леса для пользователя.
type Service struct {
	stats StatsFetcher
	usage UsageRepository
}

// NewService создаёт Service.
func NewService(stats StatsFetcher, usage UsageRepository) *Service {
	return &Service{stats: stats, usage: usage}
}

// ForUser возвращает показатели по данным сервера для пользователя userID.
func (s *Service) ForUser(ctx context.Context, userID string) (Metrics, error) {
	const op = "forest.Service.ForUser"
	requests, err := s.usage.SumUserRequests(ctx, userID)
	if err != nil {
		return Metrics{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.ForRequests(ctx, requests)
}

// ForRequests возвращает показатели для известного счётчика запросов.
func (s *Service) ForRequests(ctx context.Context, userRequests int64) (Metrics, error) {
	const op = "forest.Service.ForRequests"
	stats, err := s.stats.Fetch(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("%s: %w", op, err)
	}
	return Compute(Input{
		GlobalEarnings: ParseEarnings(stats.Earnings),
		GlobalRequests: stats.RequestsTotal,
		UserRequests:   userRequests,
	}), nil
}
