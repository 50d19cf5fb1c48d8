// Package linker связывает запись устройства на сервере с пользователем сессии.
//
// Привязка выполняется один раз: запись без пользователя получает его при первой
// активной сессии, уже привязанная запись больше не меняется. Все ошибки
// логируются и не возвращаются вызывающему коду.
package linker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coder/quartz"

	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

// NodeRepository операции с записями устройств.
type NodeRepository interface {
	GetNode(ctx context.Context, nodeID string) (*models.Node, error)
	CreateNode(ctx context.Context, node models.Node) error
	// SetNodeUser записывает пользователя только если он ещё не задан; false, если запись уже привязана.
	SetNodeUser(ctx context.Context, nodeID, userID string) (bool, error)
}

// Linker привязывает устройства к пользователям.
type Linker struct {
	nodes NodeRepository
	clock quartz.Clock
	log   *slog.Logger
}

// New создаёт Linker.
func New(nodes NodeRepository, clock quartz.Clock, log *slog.Logger) *Linker {
	return &Linker{
		nodes: nodes,
		clock: clock,
		log:   log,
	}
}

// LinkUser привязывает устройство к пользователю с известным ID.
func (l *Linker) LinkUser(ctx context.Context, nodeID, userID string) {
	if userID == "" {
		l.Link(ctx, nodeID, nil)
		return
	}
	l.Link(ctx, nodeID, &models.SessionUser{ID: userID})
}

// Link создаёт запись устройства, если её нет, и привязывает её к пользователю
// сессии, если запись ещё не привязана. session == nil означает отсутствие сессии.
func (l *Linker) Link(ctx context.Context, nodeID string, session *models.SessionUser) {
	const op = "linker.Link"
	log := l.log.With(slog.String("op", op), slog.String("node_id", nodeID))

	if nodeID == "" {
		log.Error("node identifier is empty, skip linking")
		return
	}
	var userID *string
	if session != nil && session.ID != "" {
		userID = &session.ID
	}

	node, err := l.nodes.GetNode(ctx, nodeID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		l.create(ctx, log, nodeID, userID)
		return
	case err != nil:
		log.Error("failed to read node", sl.Err(err))
		return
	}

	if node.Linked() {
		log.Debug("node already linked")
		return
	}
	if userID == nil {
		log.Debug("no active session, node stays unlinked")
		return
	}
	l.setUser(ctx, log, nodeID, *userID)
}

func (l *Linker) create(ctx context.Context, log *slog.Logger, nodeID string, userID *string) {
	err := l.nodes.CreateNode(ctx, models.Node{
		NodeIdentifier: nodeID,
		UserID:         userID,
		TotalRequests:  0,
		CreatedAt:      l.clock.Now().UTC(),
	})
	switch {
	case err == nil:
		log.Info("node created", slog.Bool("linked", userID != nil))
	case errors.Is(err, storage.ErrAlreadyExists) && userID != nil:
		// запись создана параллельно, привязываем её, если она ещё свободна
		l.setUser(ctx, log, nodeID, *userID)
	case errors.Is(err, storage.ErrAlreadyExists):
		log.Debug("node created concurrently")
	default:
		log.Error("failed to create node", sl.Err(err))
	}
}

func (l *Linker) setUser(ctx context.Context, log *slog.Logger, nodeID, userID string) {
	linked, err := l.nodes.SetNodeUser(ctx, nodeID, userID)
	if err != nil {
		log.Error("failed to link node", sl.Err(err))
		return
	}
	if !linked {
		log.Info("node was linked concurrently, keeping existing user")
		return
	}
	log.Info("node linked to user", slog.String("user_id", userID))
}
