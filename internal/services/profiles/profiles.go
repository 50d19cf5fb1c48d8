// Package services содержит бизнес-логику профилей пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/idleforest/idleforest/internal/models"
)

// ErrEmptyDisplayName имя из одних пробелов.
var ErrEmptyDisplayName = errors.New("display name is empty")

// ProfileRepository определяет методы для работы с профилями в хранилище.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
}

// ProfileService реализует чтение и изменение профиля.
type ProfileService struct {
	repo ProfileRepository
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Get возвращает профиль пользователя.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "profiles.Get"
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Rename меняет отображаемое имя и возвращает обновлённый профиль.
func (s *ProfileService) Rename(ctx context.Context, userID, displayName string) (*models.Profile, error) {
	const op = "profiles.Rename"
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyDisplayName)
	}
	if err := s.repo.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Get(ctx, userID)
}
