package localstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.db")
	s, err := Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_SetGetRemove(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	type tasks struct {
		Shared bool `json:"shared"`
	}

	require.NoError(t, s.Set(ctx, KeyHelpTasks, tasks{Shared: true}))

	var got tasks
	found, err := s.Get(ctx, KeyHelpTasks, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, got.Shared)

	require.NoError(t, s.Set(ctx, KeyHelpTasks, tasks{Shared: false}))
	found, err = s.Get(ctx, KeyHelpTasks, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, got.Shared)

	require.NoError(t, s.Remove(ctx, KeyHelpTasks))
	found, err = s.Get(ctx, KeyHelpTasks, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Remove(ctx, "never-set"))
}

func TestStore_AbsentKey(t *testing.T) {
	s, _ := newTestStore(t)

	v, found, err := s.GetInt64(context.Background(), KeyLifetimeCount)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, v)
}

func TestStore_CorruptValueIsAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)`, KeyLifetimeCount, "{not json")
	require.NoError(t, err)

	v, found, err := s.GetInt64(ctx, KeyLifetimeCount)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, v)
}

func TestStore_Int64FromFractionalNumber(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyLifetimeCount, 1234.5))

	v, found, err := s.GetInt64(ctx, KeyLifetimeCount)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1234), v)
}

func TestStore_Int64FromStringIsAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyLifetimeCount, "1234"))

	_, found, err := s.GetInt64(ctx, KeyLifetimeCount)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Time(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 4, 10, 8, 30, 15, 123_000_000, time.UTC)
	require.NoError(t, s.SetTime(ctx, KeyLastSync, ts))

	raw, found, err := s.GetString(ctx, KeyLastSync)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2025-04-10T08:30:15.123Z", raw)

	got, found, err := s.GetTime(ctx, KeyLastSync)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, ts.Equal(got))

	t.Run("unparsable timestamp is absent", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, KeyLastSync, "yesterday"))
		_, found, err := s.GetTime(ctx, KeyLastSync)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyNodeIdentifier, "node-42"))
	require.NoError(t, s.Close())

	reopened, err := Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	v, found, err := reopened.GetString(ctx, KeyNodeIdentifier)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "node-42", v)
}
