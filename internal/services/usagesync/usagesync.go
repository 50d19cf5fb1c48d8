// Package usagesync периодически отправляет локальный счётчик запросов на сервер.
//
// Цикл просыпается каждую минуту, но пишет на сервер не чаще одного раза за
// интервал синхронизации. Отметка последней синхронизации сдвигается только
// после успешной записи счётчика, поэтому неудачная попытка повторяется на
// следующем тике.
package usagesync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/quartz"

	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/localstore"
	"github.com/idleforest/idleforest/internal/models"
)

// Значения по умолчанию.
const (
	DefaultInterval = 24 * time.Hour
	DefaultTick     = time.Minute
)

// Outcome итог одного тика.
type Outcome string

// Возможные итоги тика.
const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeSynced  Outcome = "synced"
	OutcomeNoNode  Outcome = "no_node"
	OutcomeFailed  Outcome = "failed"

	// OutcomeNoCounter счётчик SDK ещё не записан, серверное значение не трогаем.
	OutcomeNoCounter Outcome = "no_counter"
)

// KVStore часть локального хранилища, нужная циклу.
type KVStore interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	GetInt64(ctx context.Context, key string) (int64, bool, error)
	GetTime(ctx context.Context, key string) (time.Time, bool, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}

// NodeIDSource выдаёт идентификатор устройства.
type NodeIDSource interface {
	NodeID(ctx context.Context) (string, error)
}

// NodeRepository запись счётчика устройства.
type NodeRepository interface {
	UpdateNodeRequests(ctx context.Context, nodeID string, totalRequests int64) error
}

// ProfileRepository запись метаданных профиля.
type ProfileRepository interface {
	UpdateProfileMetadata(ctx context.Context, userID string, meta models.ProfileMetadata) error
}

// SessionProvider пользователь текущей сессии, nil если её нет.
type SessionProvider interface {
	Current(ctx context.Context) *models.SessionUser
}

// Linker привязка устройства к пользователю.
type Linker interface {
	Link(ctx context.Context, nodeID string, session *models.SessionUser)
}

// Config параметры цикла.
type Config struct {
	Interval time.Duration
	Tick     time.Duration
}

// Service цикл синхронизации счётчика.
type Service struct {
	store    KVStore
	sdk      NodeIDSource
	nodes    NodeRepository
	profiles ProfileRepository
	sessions SessionProvider
	linker   Linker
	clock    quartz.Clock
	metrics  *Metrics
	log      *slog.Logger

	interval time.Duration
	tick     time.Duration
}

// New создаёт Service. Нулевые значения в cfg заменяются значениями по умолчанию.
func New(
	cfg Config,
	store KVStore,
	sdk NodeIDSource,
	nodes NodeRepository,
	profiles ProfileRepository,
	sessions SessionProvider,
	linker Linker,
	clock quartz.Clock,
	metrics *Metrics,
	log *slog.Logger,
) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	return &Service{
		store:    store,
		sdk:      sdk,
		nodes:    nodes,
		profiles: profiles,
		sessions: sessions,
		linker:   linker,
		clock:    clock,
		metrics:  metrics,
		log:      log,
		interval: cfg.Interval,
		tick:     cfg.Tick,
	}
}

// Run выполняет тик сразу, затем один раз привязывает устройство и
// запускает периодические тики. Блокируется до отмены ctx.
func (s *Service) Run(ctx context.Context) error {
	const op = "usagesync.Run"
	log := s.log.With(slog.String("op", op))
	log.Info("usage sync started",
		slog.Duration("interval", s.interval), slog.Duration("tick", s.tick))

	s.Tick(ctx)

	nodeID, err := s.sdk.NodeID(ctx)
	if err != nil {
		log.Error("failed to get node id for linking", sl.Err(err))
	}
	s.linker.Link(ctx, nodeID, s.sessions.Current(ctx))

	waiter := s.clock.TickerFunc(ctx, s.tick, func() error {
		s.Tick(ctx)
		return nil
	}, "usagesync", "tick")

	err = waiter.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info("usage sync stopped")
		return nil
	}
	return err
}

// Tick проверяет отметку последней синхронизации и, если интервал прошёл,
// отправляет счётчик на сервер.
func (s *Service) Tick(ctx context.Context) Outcome {
	const op = "usagesync.Tick"
	log := s.log.With(slog.String("op", op))

	now := s.clock.Now()
	outcome := s.tickAt(ctx, log, now)
	s.metrics.record(outcome, float64(now.Unix()))
	return outcome
}

func (s *Service) tickAt(ctx context.Context, log *slog.Logger, now time.Time) Outcome {
	last, found, err := s.store.GetTime(ctx, localstore.KeyLastSync)
	if err != nil {
		log.Error("failed to read last sync time", sl.Err(err))
		return OutcomeFailed
	}
	if found && !s.due(last, now) {
		return OutcomeSkipped
	}
	return s.sync(ctx, log, now)
}

// due сравнивает с точностью до миллисекунды. Отметка из будущего не считается просроченной.
func (s *Service) due(last, now time.Time) bool {
	return now.UnixMilli()-last.UnixMilli() >= s.interval.Milliseconds()
}

func (s *Service) sync(ctx context.Context, log *slog.Logger, now time.Time) Outcome {
	count, found, err := s.store.GetInt64(ctx, localstore.KeyLifetimeCount)
	if err != nil {
		log.Error("failed to read local counter", sl.Err(err))
		return OutcomeFailed
	}
	if !found {
		log.Warn("local counter is not set yet, sync postponed")
		return OutcomeNoCounter
	}

	nodeID, err := s.sdk.NodeID(ctx)
	if err != nil {
		log.Error("failed to get node id", sl.Err(err))
		return OutcomeNoNode
	}
	if nodeID == "" {
		log.Error("node id is empty, sync aborted")
		return OutcomeNoNode
	}
	log = log.With(slog.String("node_id", nodeID))

	if err = s.nodes.UpdateNodeRequests(ctx, nodeID, count); err != nil {
		log.Error("failed to push usage counter", sl.Err(err))
		return OutcomeFailed
	}

	if user := s.sessions.Current(ctx); user != nil {
		s.updateProfile(ctx, log, user.ID, now)
	}

	if err = s.store.SetTime(ctx, localstore.KeyLastSync, now); err != nil {
		log.Error("failed to store last sync time", sl.Err(err))
	}
	log.Info("usage counter synced", slog.Int64("total_requests", count))
	return OutcomeSynced
}

func (s *Service) updateProfile(ctx context.Context, log *slog.Logger, userID string, now time.Time) {
	meta := models.ProfileMetadata{LastSeen: now.UTC()}

	var optIn bool
	if found, err := s.store.Get(ctx, localstore.KeyOptIn, &optIn); err == nil && found {
		meta.OptIn = &optIn
	}
	var speed float64
	if found, err := s.store.Get(ctx, localstore.KeySpeedMbps, &speed); err == nil && found {
		meta.SpeedtestResult = &speed
	}

	if err := s.profiles.UpdateProfileMetadata(ctx, userID, meta); err != nil {
		log.Warn("failed to update profile metadata", slog.String("user_id", userID), sl.Err(err))
	}
}
