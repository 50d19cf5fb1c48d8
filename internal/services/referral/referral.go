// Package services содержит бизнес-логику реферальной программы:
// выдачу кодов, статистику и начисление приглашений.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/services/forest"
	"github.com/idleforest/idleforest/internal/storage"
)

// Параметры программы.
const (
	CodeLength        = 8
	PointsPerReferral = 100
	maxCodeAttempts   = 5
)

// ReferralRepository определяет методы для работы с реферальными данными.
type ReferralRepository interface {
	GetReferralCode(ctx context.Context, userID string) (*models.ReferralCode, error)
	CreateReferralCode(ctx context.Context, userID, code string) (*models.ReferralCode, error)
	GetReferralStats(ctx context.Context, userID string) (*models.ReferralStats, error)
	RedeemReferral(ctx context.Context, code, referredUserID string, points int64) (bool, error)
}

// Summary статистика приглашений вместе с деревьями, заработанными за них.
type Summary struct {
	models.ReferralStats
	TreesEarned  int `json:"trees_earned"`
	TreeProgress int `json:"tree_progress"`
}

// ReferralService реализует реферальную программу.
type ReferralService struct {
	repo    ReferralRepository
	newCode func() string
	log     *slog.Logger
}

// NewReferralService создает новый экземпляр ReferralService.
func NewReferralService(repo ReferralRepository, log *slog.Logger) *ReferralService {
	return &ReferralService{
		repo:    repo,
		newCode: randomCode,
		log:     log,
	}
}

func randomCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:CodeLength])
}

// Code возвращает код пользователя или storage.ErrNotFound, если он ещё не выдан.
func (s *ReferralService) Code(ctx context.Context, userID string) (*models.ReferralCode, error) {
	const op = "referral.Code"
	code, err := s.repo.GetReferralCode(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return code, nil
}

// Generate выдаёт пользователю код. Если код уже есть, возвращается существующий.
func (s *ReferralService) Generate(ctx context.Context, userID string) (*models.ReferralCode, error) {
	const op = "referral.Generate"

	existing, err := s.repo.GetReferralCode(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for range maxCodeAttempts {
		code, err := s.repo.CreateReferralCode(ctx, userID, s.newCode())
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		// код мог быть выдан параллельным запросом
		if existing, getErr := s.repo.GetReferralCode(ctx, userID); getErr == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("%s: could not generate unique code: %w", op, storage.ErrAlreadyExists)
}

// Stats возвращает статистику приглашений. Пользователь без приглашений получает нули.
func (s *ReferralService) Stats(ctx context.Context, userID string) (*Summary, error) {
	const op = "referral.Stats"
	stats, err := s.repo.GetReferralStats(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		stats = &models.ReferralStats{UserID: userID}
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	trees, progress := forest.ReferralProgress(stats.TotalReferrals)
	return &Summary{ReferralStats: *stats, TreesEarned: trees, TreeProgress: progress}, nil
}

// HandleUserRegistered начисляет приглашение по событию регистрации.
// Неизвестный код и приглашение самого себя подтверждаются без начисления;
// возвращённая ошибка означает, что сообщение нужно обработать повторно.
func (s *ReferralService) HandleUserRegistered(ctx context.Context, body []byte) error {
	const op = "referral.HandleUserRegistered"
	log := s.log.With(slog.String("op", op))

	var event models.UserRegisteredEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("malformed event, dropping", sl.Err(err))
		return nil
	}
	if event.ReferralCode == "" {
		return nil
	}
	log = log.With(slog.String("user_id", event.UserID), slog.String("code", event.ReferralCode))

	redeemed, err := s.repo.RedeemReferral(ctx, event.ReferralCode, event.UserID, PointsPerReferral)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidReferral):
		log.Warn("referral rejected", sl.Err(err))
		return nil
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}
	if !redeemed {
		log.Info("referral already credited")
		return nil
	}
	log.Info("referral credited")
	return nil
}
