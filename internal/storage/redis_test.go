package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datableed/decision-engine/pkg/progress"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
	store := NewRedisStore(mr.Addr(), logger)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRedisStoreSaveLoad(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	p := progress.NewSessionProgress("aria")
	p.MarkVisited(2)
	p.StoryState["trust"] = -5
	p.MarkCompleted("first_contact")

	require.NoError(t, store.SaveProgress(ctx, "aria", p))

	loaded, err := store.LoadProgress(ctx, "aria")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.CurrentArea)
	assert.Equal(t, []int{2}, loaded.VisitedAreas)
	assert.Equal(t, -5.0, loaded.StoryState["trust"])
	assert.True(t, loaded.HasCompleted("first_contact"))
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store := newTestRedisStore(t)

	loaded, err := store.LoadProgress(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreLoadBackfillsDefaults(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewRedisStore(mr.Addr(), logger)
	t.Cleanup(func() { _ = store.Close() })

	// Simulate an older schema with missing keys.
	require.NoError(t, mr.Set("progress:eddie", `{"current_area":1}`))

	loaded, err := store.LoadProgress(context.Background(), "eddie")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "eddie", loaded.Character)
	assert.NotNil(t, loaded.StoryState)
	assert.NotNil(t, loaded.VisitedAreas)
	assert.NotNil(t, loaded.CompletedTriggers)
}

func TestRedisStoreLoadAll(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveProgress(ctx, "aria", progress.NewSessionProgress("aria")))
	require.NoError(t, store.SaveProgress(ctx, "eddie", progress.NewSessionProgress("eddie")))

	all, err := store.LoadAllProgress(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Contains(t, all, "aria")
	assert.Contains(t, all, "eddie")
}

func TestRedisStoreDelete(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveProgress(ctx, "aria", progress.NewSessionProgress("aria")))
	require.NoError(t, store.DeleteProgress(ctx, "aria"))

	loaded, err := store.LoadProgress(ctx, "aria")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
