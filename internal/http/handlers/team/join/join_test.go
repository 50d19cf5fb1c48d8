package join

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Join(ctx context.Context, teamID, userID string) error {
	return m.Called(ctx, teamID, userID).Error(0)
}

func TestJoinHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		teamID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "успешное вступление",
			teamID: "t1",
			setupMock: func(m *MockService) {
				m.On("Join", mock.Anything, "t1", "u1").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK"}`,
		},
		{
			name:   "уже в команде",
			teamID: "t1",
			setupMock: func(m *MockService) {
				m.On("Join", mock.Anything, "t1", "u1").
					Return(fmt.Errorf("teams.Join: %w", storage.ErrAlreadyExists)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"already exists"`,
		},
		{
			name:   "команда не найдена",
			teamID: "missing",
			setupMock: func(m *MockService) {
				m.On("Join", mock.Anything, "missing", "u1").
					Return(fmt.Errorf("teams.Join: %w", storage.ErrNotFound)).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
		{
			name:           "пустой id",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid id"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/teams/"+tt.teamID+"/join", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.teamID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithUser(ctx, &models.SessionUser{ID: "u1"}))

			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
