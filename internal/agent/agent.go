// Package agent фоновый процесс расширения: запуск SDK и цикла синхронизации,
// обработка установки и обновления, привязка устройства после входа и регистрации,
// локальные сообщения от страниц.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/quartz"

	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/localstore"
	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/sdk"
)

// Reason причина события установки.
type Reason string

const (
	ReasonInstall Reason = "install"
	ReasonUpdate  Reason = "update"
)

// ErrUnknownReason причина установки не распознана.
var ErrUnknownReason = errors.New("unknown install reason")

// Store локальное хранилище агента.
type Store interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
	GetString(ctx context.Context, key string) (string, bool, error)
	GetTime(ctx context.Context, key string) (time.Time, bool, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}

// Linker привязка устройства к пользователю сессии.
type Linker interface {
	Link(ctx context.Context, nodeID string, session *models.SessionUser)
}

// Sessions сессия пользователя в локальном хранилище.
type Sessions interface {
	Current(ctx context.Context) *models.SessionUser
	Save(ctx context.Context, token string) error
}

// Syncer цикл синхронизации счётчика.
type Syncer interface {
	Run(ctx context.Context) error
}

// AuthAPI вход и регистрация на сервере.
type AuthAPI interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
}

// Config адреса страниц, которые агент открывает пользователю.
type Config struct {
	WelcomeURL string
}

type Agent struct {
	cfg      Config
	store    Store
	sdk      sdk.Client
	linker   Linker
	sessions Sessions
	syncer   Syncer
	api      AuthAPI
	openURL  func(url string) error
	clock    quartz.Clock
	log      *slog.Logger
}

// New создаёт Agent. openURL открывает страницу в браузере пользователя.
func New(
	cfg Config,
	store Store,
	sdkClient sdk.Client,
	linker Linker,
	sessions Sessions,
	syncer Syncer,
	api AuthAPI,
	openURL func(url string) error,
	clock quartz.Clock,
	log *slog.Logger,
) *Agent {
	return &Agent{
		cfg:      cfg,
		store:    store,
		sdk:      sdkClient,
		linker:   linker,
		sessions: sessions,
		syncer:   syncer,
		api:      api,
		openURL:  openURL,
		clock:    clock,
		log:      log,
	}
}

// Start инициализирует SDK и запускает цикл синхронизации до отмены ctx.
func (a *Agent) Start(ctx context.Context) error {
	const op = "agent.Start"
	if err := a.sdk.InitBackground(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.log.Info("background started", slog.String("op", op))
	return a.syncer.Run(ctx)
}

// OnInstalled обрабатывает установку или обновление расширения.
func (a *Agent) OnInstalled(ctx context.Context, reason Reason) error {
	const op = "agent.OnInstalled"
	log := a.log.With(slog.String("op", op), slog.String("reason", string(reason)))

	if reason != ReasonInstall && reason != ReasonUpdate {
		return fmt.Errorf("%s: %w: %q", op, ErrUnknownReason, reason)
	}

	if err := a.sdk.InitBackground(ctx); err != nil {
		log.Error("failed to init sdk", sl.Err(err))
	}

	if reason == ReasonInstall {
		a.recordInstall(ctx, log)
		a.open(log, a.cfg.WelcomeURL)
		if link, err := a.sdk.OptInLink(ctx); err != nil {
			log.Error("failed to build opt-in link", sl.Err(err))
		} else {
			a.open(log, link)
		}
	}

	a.linkCurrent(ctx)

	if link, err := a.sdk.FeedbackLink(ctx); err != nil {
		log.Error("failed to build feedback link", sl.Err(err))
	} else {
		log.Info("uninstall url registered", slog.String("url", link))
	}
	return nil
}

// OnLogin привязывает устройство после входа.
func (a *Agent) OnLogin(ctx context.Context) {
	a.linkCurrent(ctx)
}

// OnSignup привязывает устройство после регистрации и удаляет
// использованный реферальный код.
func (a *Agent) OnSignup(ctx context.Context) {
	a.linkCurrent(ctx)
	if err := a.store.Remove(ctx, localstore.KeyReferralCode); err != nil {
		a.log.Error("failed to remove referral code", slog.String("op", "agent.OnSignup"), sl.Err(err))
	}
}

// SignIn выполняет вход на сервере, сохраняет сессию и привязывает устройство.
func (a *Agent) SignIn(ctx context.Context, email, password string) (*models.AuthResult, error) {
	const op = "agent.SignIn"
	res, err := a.api.Login(ctx, models.LoginRequest{
		Email:          email,
		Password:       password,
		NodeIdentifier: a.nodeID(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = a.sessions.Save(ctx, res.Token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.OnLogin(ctx)
	return res, nil
}

// SignUp регистрирует пользователя с отложенным реферальным кодом,
// сохраняет сессию и привязывает устройство.
func (a *Agent) SignUp(ctx context.Context, email, password, displayName string) (*models.AuthResult, error) {
	const op = "agent.SignUp"
	code, _, err := a.store.GetString(ctx, localstore.KeyReferralCode)
	if err != nil {
		a.log.Warn("failed to read referral code", slog.String("op", op), sl.Err(err))
	}
	res, err := a.api.Register(ctx, models.RegisterRequest{
		Email:          email,
		Password:       password,
		DisplayName:    displayName,
		ReferralCode:   code,
		NodeIdentifier: a.nodeID(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = a.sessions.Save(ctx, res.Token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.OnSignup(ctx)
	return res, nil
}

func (a *Agent) linkCurrent(ctx context.Context) {
	a.linker.Link(ctx, a.nodeID(ctx), a.sessions.Current(ctx))
}

// nodeID возвращает пустую строку при ошибке SDK; линкер сам логирует пустой идентификатор.
func (a *Agent) nodeID(ctx context.Context) string {
	id, err := a.sdk.NodeID(ctx)
	if err != nil {
		a.log.Error("failed to get node id", slog.String("op", "agent.nodeID"), sl.Err(err))
		return ""
	}
	return id
}

func (a *Agent) recordInstall(ctx context.Context, log *slog.Logger) {
	_, found, err := a.store.GetTime(ctx, localstore.KeyInstallTime)
	if err != nil {
		log.Error("failed to read install timestamp", sl.Err(err))
		return
	}
	if found {
		return
	}
	if err = a.store.SetTime(ctx, localstore.KeyInstallTime, a.clock.Now()); err != nil {
		log.Error("failed to store install timestamp", sl.Err(err))
	}
}

func (a *Agent) open(log *slog.Logger, url string) {
	if url == "" {
		return
	}
	if err := a.openURL(url); err != nil {
		log.Warn("failed to open page", slog.String("url", url), sl.Err(err))
	}
}
