package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/coder/quartz"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/idleforest/idleforest/internal/agent"
	"github.com/idleforest/idleforest/internal/apiclient"
	"github.com/idleforest/idleforest/internal/config"
	"github.com/idleforest/idleforest/internal/lib/jwt"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/localstore"
	"github.com/idleforest/idleforest/internal/sdk"
	"github.com/idleforest/idleforest/internal/services/linker"
	"github.com/idleforest/idleforest/internal/services/usagesync"
	"github.com/idleforest/idleforest/internal/session"
	"github.com/idleforest/idleforest/internal/storage/repository"
)

var rootCmd = &cobra.Command{
	Use:           "idleforest-agent",
	Short:         "Background agent of the Idle Forest extension",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (defaults to $CONFIG_PATH)")

	rootCmd.AddCommand(runCmd, installedCmd, loginCmd, signupCmd, logoutCmd, optInCmd, optOutCmd, statsCmd)
}

// runtime зависимости одной команды агента.
type runtime struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *localstore.Store
	sdk      *sdk.Local
	db       *repository.Storage
	registry *prometheus.Registry
	agent    *agent.Agent
}

// openLocal загружает конфиг и открывает локальное хранилище.
// Команды, которым нужен сервер, дополнительно вызывают withAgent.
func openLocal(cmd *cobra.Command) (*runtime, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return nil, errors.New("config path is not set: use --config or CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log := sl.New(cfg.Env, os.Stderr).With(slog.String("component", "agent"))
	store, err := localstore.Open(cfg.LocalStorePath, log)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:   cfg,
		log:   log,
		store: store,
		sdk:   sdk.NewLocal(store, cfg.SDKPublicKey, cfg.SDKLinkBaseURL),
	}, nil
}

func (rt *runtime) withAgent() error {
	const op = "agent.withAgent"

	db, err := repository.New(rt.cfg.StorageConnectionString)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rt.db = db

	rt.registry = prometheus.NewRegistry()
	metrics, err := usagesync.NewMetrics(rt.registry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	clock := quartz.NewReal()
	sessions := rt.sessions()
	nodeLinker := linker.New(db, clock, rt.log)
	syncer := usagesync.New(
		usagesync.Config{Interval: rt.cfg.SyncInterval, Tick: rt.cfg.TickInterval},
		rt.store, rt.sdk, db, db, sessions, nodeLinker, clock, metrics, rt.log,
	)

	rt.agent = agent.New(
		agent.Config{WelcomeURL: rt.cfg.WelcomeURL},
		rt.store, rt.sdk, nodeLinker, sessions, syncer,
		apiclient.NewClient(rt.cfg.APIBaseURL, rt.cfg.TimeoutHTTP),
		browser.OpenURL, clock, rt.log,
	)
	return nil
}

func (rt *runtime) sessions() *session.Provider {
	return session.NewProvider(rt.store, jwt.NewJWTMaker(rt.cfg.JWTSecretKey, rt.cfg.TokenTTL), rt.log)
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.log.Error("failed to close storage", sl.Err(err))
		}
	}
	if err := rt.store.Close(); err != nil {
		rt.log.Error("failed to close local store", sl.Err(err))
	}
}

// withRuntime открывает зависимости, выполняет fn и закрывает их.
func withRuntime(cmd *cobra.Command, needAgent bool, fn func(ctx context.Context, rt *runtime) error) error {
	rt, err := openLocal(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if needAgent {
		if err = rt.withAgent(); err != nil {
			return err
		}
	}
	return fn(cmd.Context(), rt)
}
