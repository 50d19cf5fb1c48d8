// Package session читает сессию пользователя, которую интерфейс сохраняет
// в локальное хранилище после входа или регистрации.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/idleforest/idleforest/internal/lib/jwt"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/localstore"
	"github.com/idleforest/idleforest/internal/models"
)

// KVStore часть локального хранилища, нужная сессии.
type KVStore interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// Provider выдаёт пользователя текущей сессии.
type Provider struct {
	store  KVStore
	tokens jwt.Maker
	log    *slog.Logger
}

// NewProvider создаёт Provider.
func NewProvider(store KVStore, tokens jwt.Maker, log *slog.Logger) *Provider {
	return &Provider{store: store, tokens: tokens, log: log}
}

// Current возвращает пользователя активной сессии или nil.
// Отсутствующий, повреждённый или просроченный токен означает отсутствие сессии.
func (p *Provider) Current(ctx context.Context) *models.SessionUser {
	const op = "session.Current"
	log := p.log.With(slog.String("op", op))

	token, found, err := p.store.GetString(ctx, localstore.KeySession)
	if err != nil {
		log.Error("failed to read session", sl.Err(err))
		return nil
	}
	if !found || token == "" {
		return nil
	}

	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		log.Info("stored session is not valid", sl.Err(err))
		return nil
	}
	return &models.SessionUser{ID: claims.UserID, Email: claims.Email}
}

// Save сохраняет токен сессии.
func (p *Provider) Save(ctx context.Context, token string) error {
	const op = "session.Save"
	if err := p.store.Set(ctx, localstore.KeySession, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет сессию (выход).
func (p *Provider) Clear(ctx context.Context) error {
	const op = "session.Clear"
	if err := p.store.Remove(ctx, localstore.KeySession); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
