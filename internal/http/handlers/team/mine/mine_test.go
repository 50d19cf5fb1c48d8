package mine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Mine(ctx context.Context, userID string) (*models.Team, error) {
	args := m.Called(ctx, userID)
	team, _ := args.Get(0).(*models.Team)
	return team, args.Error(1)
}

func TestMineHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "пользователь в команде",
			setupMock: func(m *MockService) {
				m.On("Mine", mock.Anything, "u1").Return(&models.Team{ID: "t1", Name: "Oaks"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"name":"Oaks"`,
		},
		{
			name: "пользователь без команды",
			setupMock: func(m *MockService) {
				m.On("Mine", mock.Anything, "u1").Return(nil, fmt.Errorf("teams.Mine: %w", storage.ErrNotFound)).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK"}`,
		},
		{
			name: "ошибка сервиса",
			setupMock: func(m *MockService) {
				m.On("Mine", mock.Anything, "u1").Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to get team"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/teams/mine", nil)
			req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.SessionUser{ID: "u1"}))
			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
