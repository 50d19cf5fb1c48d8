package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/idleforest/idleforest/internal/models"
	services "github.com/idleforest/idleforest/internal/services/profiles"
	"github.com/idleforest/idleforest/internal/storage"
)

type ProfileRepoMock struct{ mock.Mock }

func (m *ProfileRepoMock) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *ProfileRepoMock) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	return m.Called(ctx, userID, displayName).Error(0)
}

func TestProfileService_Get(t *testing.T) {
	repo := new(ProfileRepoMock)
	repo.On("GetProfile", mock.Anything, "u1").Return(&models.Profile{UserID: "u1", DisplayName: "Alice"}, nil)
	repo.On("GetProfile", mock.Anything, "u2").Return(nil, storage.ErrNotFound)

	svc := services.NewProfileService(repo)

	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.DisplayName)

	_, err = svc.Get(context.Background(), "u2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProfileService_Rename(t *testing.T) {
	repo := new(ProfileRepoMock)
	repo.On("UpdateDisplayName", mock.Anything, "u1", "Alice B").Return(nil).Once()
	repo.On("GetProfile", mock.Anything, "u1").Return(&models.Profile{UserID: "u1", DisplayName: "Alice B"}, nil)

	svc := services.NewProfileService(repo)

	p, err := svc.Rename(context.Background(), "u1", "  Alice B ")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", p.DisplayName)

	_, err = svc.Rename(context.Background(), "u1", "   ")
	assert.ErrorIs(t, err, services.ErrEmptyDisplayName)
	repo.AssertNumberOfCalls(t, "UpdateDisplayName", 1)
}
