package code

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

func (m *MockService) Code(ctx context.Context, userID string) (*models.ReferralCode, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(*models.ReferralCode)
	return c, args.Error(1)
}

func TestCodeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		mockResp       *models.ReferralCode
		mockErr        error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "код выдан",
			mockResp:       &models.ReferralCode{UserID: "u1", Code: "ABCD1234", Uses: 2},
			expectedStatus: http.StatusOK,
			expectedBody:   `"code":"ABCD1234"`,
		},
		{
			name:           "код не выдан",
			mockErr:        fmt.Errorf("referral.Code: %w", storage.ErrNotFound),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK"}`,
		},
		{
			name:           "ошибка сервиса",
			mockErr:        errors.New("db down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to get referral code"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Code", mock.Anything, "u1").Return(tt.mockResp, tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodGet, "/referral/code", nil)
			req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.SessionUser{ID: "u1"}))
			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
