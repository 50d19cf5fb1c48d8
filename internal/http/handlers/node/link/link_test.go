package link

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/models"
)

type LinkerMock struct {
	mock.Mock
}

func (m *LinkerMock) LinkUser(ctx context.Context, nodeID, userID string) {
	m.Called(ctx, nodeID, userID)
}

func TestLinkHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name         string
		user         *models.SessionUser
		body         string
		setupMock    func(*LinkerMock)
		wantStatus   int
		expectedBody string
	}{
		{
			name: "успешная привязка",
			user: &models.SessionUser{ID: "u1"},
			body: `{"node_identifier":"node-1"}`,
			setupMock: func(m *LinkerMock) {
				m.On("LinkUser", mock.Anything, "node-1", "u1").Once()
			},
			wantStatus:   http.StatusOK,
			expectedBody: `{"status":"OK"}`,
		},
		{
			name:         "нет сессии",
			body:         `{"node_identifier":"node-1"}`,
			setupMock:    func(_ *LinkerMock) {},
			wantStatus:   http.StatusUnauthorized,
			expectedBody: `"error":"user identification missing"`,
		},
		{
			name:         "пустой идентификатор",
			user:         &models.SessionUser{ID: "u1"},
			body:         `{"node_identifier":""}`,
			setupMock:    func(_ *LinkerMock) {},
			wantStatus:   http.StatusUnprocessableEntity,
			expectedBody: `field NodeIdentifier is a required field`,
		},
		{
			name:         "некорректный json",
			user:         &models.SessionUser{ID: "u1"},
			body:         `{`,
			setupMock:    func(_ *LinkerMock) {},
			wantStatus:   http.StatusBadRequest,
			expectedBody: `"error":"invalid request body"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			linker := new(LinkerMock)
			tt.setupMock(linker)
			handler := New(logger, linker)

			req := httptest.NewRequest(http.MethodPost, "/nodes/link", strings.NewReader(tt.body))
			if tt.user != nil {
				req = req.WithContext(middlewarectx.WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			linker.AssertExpectations(t)
		})
	}
}
