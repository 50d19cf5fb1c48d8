package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/idleforest/idleforest/internal/lib/jwt"
	"github.com/idleforest/idleforest/internal/lib/password"
	"github.com/idleforest/idleforest/internal/models"
	services "github.com/idleforest/idleforest/internal/services/auth"
	"github.com/idleforest/idleforest/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User, displayName string) (string, error) {
	args := m.Called(ctx, user, displayName)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID, email string) (string, error) {
	args := m.Called(userID, email)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

type LinkerMock struct {
	mock.Mock
}

func (m *LinkerMock) LinkUser(ctx context.Context, nodeID, userID string) {
	m.Called(ctx, nodeID, userID)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		req        models.RegisterRequest
		setupMocks func(r *UserRepoMock, j *JwtMakerMock, l *LinkerMock, p *PublisherMock)
		wantUserID string
		wantErr    bool
		errMsg     string
	}{
		{
			name: "successful registration with node and referral",
			req: models.RegisterRequest{
				Email: "test@example.com", Password: "password123", DisplayName: "Tester",
				ReferralCode: "ABCD1234", NodeIdentifier: "node-1",
			},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock, l *LinkerMock, p *PublisherMock) {
				r.On("RegisterUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "test@example.com" &&
						user.PasswordHash != "" &&
						password.CompareHash(user.PasswordHash, "password123") == nil
				}), "Tester").Return("user-uuid", nil).Once()
				j.On("GenerateToken", "user-uuid", "test@example.com").Return("jwt-token", nil).Once()
				l.On("LinkUser", mock.Anything, "node-1", "user-uuid").Return().Once()
				p.On("Publish", mock.Anything, models.RoutingKeyUserRegistered,
					mock.MatchedBy(func(e models.UserRegisteredEvent) bool {
						return e.UserID == "user-uuid" && e.ReferralCode == "ABCD1234"
					})).Return(nil).Once()
			},
			wantUserID: "user-uuid",
		},
		{
			name: "publish failure does not fail registration",
			req:  models.RegisterRequest{Email: "a@example.com", Password: "password123", DisplayName: "A"},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock, _ *LinkerMock, p *PublisherMock) {
				r.On("RegisterUser", mock.Anything, mock.Anything, "A").Return("user-a", nil).Once()
				j.On("GenerateToken", "user-a", "a@example.com").Return("jwt", nil).Once()
				p.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
			},
			wantUserID: "user-a",
		},
		{
			name: "duplicate email",
			req:  models.RegisterRequest{Email: "dup@example.com", Password: "password123", DisplayName: "D"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock, _ *LinkerMock, _ *PublisherMock) {
				r.On("RegisterUser", mock.Anything, mock.Anything, "D").Return("", storage.ErrAlreadyExists).Once()
			},
			wantErr: true,
			errMsg:  storage.ErrAlreadyExists.Error(),
		},
		{
			name:       "too short password",
			req:        models.RegisterRequest{Email: "s@example.com", Password: "123", DisplayName: "S"},
			setupMocks: func(_ *UserRepoMock, _ *JwtMakerMock, _ *LinkerMock, _ *PublisherMock) {},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			linker := new(LinkerMock)
			pub := new(PublisherMock)
			tt.setupMocks(repo, jwtMock, linker, pub)

			svc := services.NewAuthService(repo, jwtMock, linker, pub, newNoopLogger())
			got, err := svc.Register(context.Background(), tt.req)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				linker.AssertNotCalled(t, "LinkUser", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, got.UserID)
			assert.NotEmpty(t, got.Token)

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
			linker.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	rawPassword := "correctpassword"
	hashedPassword, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	testUser := &models.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: hashedPassword,
	}

	tests := []struct {
		name       string
		req        models.LoginRequest
		setupMocks func(r *UserRepoMock, j *JwtMakerMock, l *LinkerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name: "successful login links node",
			req:  models.LoginRequest{Email: "test@example.com", Password: rawPassword, NodeIdentifier: "node-7"},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock, l *LinkerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "user-1", "test@example.com").Return("jwt-token-123", nil).Once()
				l.On("LinkUser", mock.Anything, "node-7", "user-1").Return().Once()
			},
			wantToken: "jwt-token-123",
		},
		{
			name: "user not found",
			req:  models.LoginRequest{Email: "nobody@example.com", Password: "password"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock, _ *LinkerMock) {
				r.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name: "wrong password",
			req:  models.LoginRequest{Email: "test@example.com", Password: "wrongpassword"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock, _ *LinkerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			linker := new(LinkerMock)
			tt.setupMocks(repo, jwtMock, linker)

			svc := services.NewAuthService(repo, jwtMock, linker, new(PublisherMock), newNoopLogger())
			got, err := svc.Login(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, got.Token)
			assert.Equal(t, "user-1", got.UserID)
			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
			linker.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	jwtMock := new(JwtMakerMock)
	jwtMock.On("ParseToken", "good").Return(&customjwt.CustomClaims{UserID: "user-1", Email: "u@example.com"}, nil)
	jwtMock.On("ParseToken", "bad").Return(nil, customjwt.ErrInvalidToken)

	svc := services.NewAuthService(new(UserRepoMock), jwtMock, new(LinkerMock), new(PublisherMock), newNoopLogger())

	user, err := svc.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	_, err = svc.ValidateToken(context.Background(), "bad")
	assert.ErrorIs(t, err, customjwt.ErrInvalidToken)
}
