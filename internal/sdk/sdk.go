// Package sdk граница со сторонним SDK обмена трафиком.
// Сам SDK в репозиторий не входит; Local повторяет его поведение,
// нужное агенту: идентификатор устройства, согласие и ссылки.
package sdk

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/idleforest/idleforest/internal/localstore"
)

// Client операции SDK, которыми пользуется агент.
type Client interface {
	InitBackground(ctx context.Context) error
	InitContentScript(ctx context.Context) error
	OptIn(ctx context.Context) error
	OptOut(ctx context.Context) error
	NodeID(ctx context.Context) (string, error)
	OptInLink(ctx context.Context) (string, error)
	FeedbackLink(ctx context.Context) (string, error)
}

// KVStore часть локального хранилища, нужная SDK.
type KVStore interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Local хранит идентификатор устройства и флаг согласия в локальном хранилище.
type Local struct {
	store     KVStore
	publicKey string
	baseURL   string
	newID     func() string
}

// NewLocal создаёт Local. baseURL используется для ссылок согласия и отзыва.
func NewLocal(store KVStore, publicKey, baseURL string) *Local {
	return &Local{
		store:     store,
		publicKey: publicKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		newID:     uuid.NewString,
	}
}

// InitBackground выдаёт устройству идентификатор при первом запуске.
func (l *Local) InitBackground(ctx context.Context) error {
	const op = "sdk.InitBackground"
	id, found, err := l.store.GetString(ctx, localstore.KeyNodeIdentifier)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if found && id != "" {
		return nil
	}
	if err = l.store.Set(ctx, localstore.KeyNodeIdentifier, l.newID()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// InitContentScript в локальной реализации ничего не делает.
func (l *Local) InitContentScript(context.Context) error {
	return nil
}

// OptIn сохраняет согласие пользователя.
func (l *Local) OptIn(ctx context.Context) error {
	return l.setOptIn(ctx, true)
}

// OptOut отзывает согласие пользователя.
func (l *Local) OptOut(ctx context.Context) error {
	return l.setOptIn(ctx, false)
}

func (l *Local) setOptIn(ctx context.Context, v bool) error {
	const op = "sdk.setOptIn"
	if err := l.store.Set(ctx, localstore.KeyOptIn, v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NodeID возвращает идентификатор устройства или пустую строку,
// если InitBackground ещё не вызывался.
func (l *Local) NodeID(ctx context.Context) (string, error) {
	const op = "sdk.NodeID"
	id, _, err := l.store.GetString(ctx, localstore.KeyNodeIdentifier)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// OptInLink ссылка на страницу согласия.
func (l *Local) OptInLink(ctx context.Context) (string, error) {
	return l.link(ctx, "opt-in", "sdk.OptInLink")
}

// FeedbackLink ссылка на страницу отзыва, открываемую при удалении расширения.
func (l *Local) FeedbackLink(ctx context.Context) (string, error) {
	return l.link(ctx, "feedback", "sdk.FeedbackLink")
}

func (l *Local) link(ctx context.Context, page, op string) (string, error) {
	nodeID, err := l.NodeID(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	q := url.Values{}
	q.Set("key", l.publicKey)
	if nodeID != "" {
		q.Set("node_id", nodeID)
	}
	return l.baseURL + "/" + page + "?" + q.Encode(), nil
}
