// Package services содержит логику бизнес-уровня для регистрации, входа и проверки сессии.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/idleforest/idleforest/internal/lib/jwt"
	"github.com/idleforest/idleforest/internal/lib/password"
	"github.com/idleforest/idleforest/internal/lib/sl"
	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

// ErrInvalidCredentials неверная почта или пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя вместе с профилем и возвращает его ID.
	RegisterUser(ctx context.Context, user models.User, displayName string) (string, error)

	// GetUserByEmail возвращает пользователя по почте или storage.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// NodeLinker привязывает устройство к пользователю. Ошибки привязки не возвращаются.
type NodeLinker interface {
	LinkUser(ctx context.Context, nodeID, userID string)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// AuthService отвечает за регистрацию, вход и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	linker   NodeLinker
	events   EventPublisher
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, linker NodeLinker, events EventPublisher, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		linker:   linker,
		events:   events,
		log:      log,
	}
}

// Register создаёт пользователя и профиль, выдаёт токен сессии,
// привязывает устройство и сообщает о регистрации для начисления реферала.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	userID, err := s.users.RegisterUser(ctx, models.User{
		Email:        req.Email,
		PasswordHash: hashed,
	}, req.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(userID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.NodeIdentifier != "" {
		s.linker.LinkUser(ctx, req.NodeIdentifier, userID)
	}

	event := models.UserRegisteredEvent{
		UserID:       userID,
		ReferralCode: req.ReferralCode,
		RegisteredAt: time.Now().UTC(),
	}
	if err = s.events.Publish(ctx, models.RoutingKeyUserRegistered, event); err != nil {
		s.log.Error("failed to publish user registered event",
			slog.String("op", op), slog.String("user_id", userID), sl.Err(err))
	}

	return &models.AuthResult{UserID: userID, Token: token}, nil
}

// Login проверяет пароль, выдаёт токен сессии и привязывает устройство.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.NodeIdentifier != "" {
		s.linker.LinkUser(ctx, req.NodeIdentifier, user.ID)
	}
	return &models.AuthResult{UserID: user.ID, Token: token}, nil
}

// ValidateToken проверяет JWT и возвращает пользователя сессии.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.SessionUser, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.SessionUser{ID: claims.UserID, Email: claims.Email}, nil
}
