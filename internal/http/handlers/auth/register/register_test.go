package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/idleforest/idleforest/internal/http/response"
	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*models.AuthResult)
	return res, args.Error(1)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	valid := models.RegisterRequest{
		Email:          "new@forest.io",
		Password:       "secret1",
		DisplayName:    "Ranger",
		ReferralCode:   "ABCD1234",
		NodeIdentifier: "node-1",
	}

	tests := []struct {
		name       string
		body       any
		setupMock  func(*ServiceMock)
		wantStatus int
		wantError  string
		wantToken  string
	}{
		{
			name: "успешная регистрация",
			body: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid).
					Return(&models.AuthResult{UserID: "u1", Token: "tok"}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantToken:  "tok",
		},
		{
			name:       "некорректный json",
			body:       "not a json",
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "некорректная почта",
			body:       models.RegisterRequest{Email: "nope", Password: "secret1", DisplayName: "R"},
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "field Email must be a valid email",
		},
		{
			name:       "короткий пароль",
			body:       models.RegisterRequest{Email: "a@b.io", Password: "123", DisplayName: "R"},
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "field Password must be at least 6 characters long",
		},
		{
			name: "почта занята",
			body: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid).
					Return(nil, fmt.Errorf("wrap: %w", storage.ErrAlreadyExists)).Once()
			},
			wantStatus: http.StatusConflict,
			wantError:  "user already exists",
		},
		{
			name: "ошибка сервиса",
			body: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, valid).Return(nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "failed to register user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			handler := New(logger, svc)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp struct {
				Status string             `json:"status"`
				Error  string             `json:"error"`
				Data   *models.AuthResult `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			if tt.wantError != "" {
				assert.Equal(t, response.StatusError, resp.Status)
				assert.Equal(t, tt.wantError, resp.Error)
			} else {
				assert.Equal(t, response.StatusOK, resp.Status)
				require.NotNil(t, resp.Data)
				assert.Equal(t, tt.wantToken, resp.Data.Token)
			}
			svc.AssertExpectations(t)
		})
	}
}
