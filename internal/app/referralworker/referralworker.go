// Package referralworker собирает обработчик событий регистрации,
// который начисляет приглашения владельцам реферальных кодов.
package referralworker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/idleforest/idleforest/internal/config"
	"github.com/idleforest/idleforest/internal/lib/rabbitmq"
	"github.com/idleforest/idleforest/internal/lib/sl"
	referralservice "github.com/idleforest/idleforest/internal/services/referral"
	"github.com/idleforest/idleforest/internal/storage/repository"
)

type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	db              *repository.Storage
	queue           string
	referralService *referralservice.ReferralService
	logger          *slog.Logger
}

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.referralworker.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// схему создаёт API, воркер только ждёт миграций
	if err = repository.WaitDatabaseReady(ctx, db, dbReadyAttempts, dbReadyDelay); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.ReferralQueues(cfg.ReferralQueue))
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:            conn,
		ch:              ch,
		db:              db,
		queue:           cfg.ReferralQueue,
		referralService: referralservice.NewReferralService(db, logger),
		logger:          logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.queue, a.referralService.HandleUserRegistered)
	if err != nil {
		a.logger.Error("failed to start referral consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}
	a.logger.Info("referral worker started", slog.String("queue", a.queue))

	<-ctx.Done()
	a.logger.Info("referral worker shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
