package session_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idleforest/idleforest/internal/lib/jwt"
	"github.com/idleforest/idleforest/internal/localstore"
	"github.com/idleforest/idleforest/internal/session"
)

func setup(t *testing.T, ttl time.Duration) (*session.Provider, *localstore.Store, *jwt.MakerImpl) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	maker := jwt.NewJWTMaker("session-secret", ttl)
	return session.NewProvider(store, maker, log), store, maker
}

func TestProvider_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("нет сессии", func(t *testing.T) {
		p, _, _ := setup(t, time.Hour)
		assert.Nil(t, p.Current(ctx))
	})

	t.Run("валидный токен", func(t *testing.T) {
		p, _, maker := setup(t, time.Hour)
		token, err := maker.GenerateToken("user-1", "u@example.com")
		require.NoError(t, err)
		require.NoError(t, p.Save(ctx, token))

		user := p.Current(ctx)
		require.NotNil(t, user)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, "u@example.com", user.Email)
	})

	t.Run("повреждённый токен", func(t *testing.T) {
		p, store, _ := setup(t, time.Hour)
		require.NoError(t, store.Set(ctx, localstore.KeySession, "garbage"))
		assert.Nil(t, p.Current(ctx))
	})

	t.Run("просроченный токен", func(t *testing.T) {
		p, _, maker := setup(t, -time.Minute)
		token, err := maker.GenerateToken("user-1", "u@example.com")
		require.NoError(t, err)
		require.NoError(t, p.Save(ctx, token))
		assert.Nil(t, p.Current(ctx))
	})

	t.Run("выход", func(t *testing.T) {
		p, _, maker := setup(t, time.Hour)
		token, err := maker.GenerateToken("user-1", "u@example.com")
		require.NoError(t, err)
		require.NoError(t, p.Save(ctx, token))
		require.NoError(t, p.Clear(ctx))
		assert.Nil(t, p.Current(ctx))
	})
}
