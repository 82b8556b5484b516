package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/acodec-go/internal/config"
	"github.com/micro-nova/acodec-go/internal/models"
)

// --- JSONStore tests ---

func TestJSONStore_LoadMissingFile_ReturnsDefault(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	st, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *st)
}

func TestJSONStore_SaveLoadRoundTrip(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	st := models.DefaultSettings()
	st.Output = "both"
	st.Group = 3
	st.MicBias = 2

	require.NoError(t, store.Save(&st))
	require.NoError(t, store.Flush())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, st, *loaded)
}

func TestJSONStore_CorruptJSON_ReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	store := config.NewJSONStore(dir)

	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{invalid json!!!"), 0644))

	st, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *st)
}

func TestJSONStore_PartialFileKeepsDefaults(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"output":"hp"}`), 0644))
	st, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "hp", st.Output)
	assert.True(t, st.ZeroCross, "missing fields should default")
	assert.Equal(t, 7, st.MicBias, "missing fields should default")
}

func TestJSONStore_SaveIsDebounced(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	st := models.DefaultSettings()
	require.NoError(t, store.Save(&st))
	assert.NoFileExists(t, store.Path(), "file written before debounce elapsed")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(store.Path())
		return err == nil
	}, 3*time.Second, 50*time.Millisecond, "debounced write never landed")
}

func TestJSONStore_FlushWithoutSave_NoError(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())
	assert.NoError(t, store.Flush())
}

func TestJSONStore_WatchReportsExternalEdit(t *testing.T) {
	store := config.NewJSONStore(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan models.Settings, 4)
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx, func(s models.Settings) { got <- s }) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Our own write must not echo back.
	own := models.DefaultSettings()
	own.Group = 1
	require.NoError(t, store.Save(&own))
	require.NoError(t, store.Flush())

	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"output":"both","group":2}`), 0644))

	select {
	case s := <-got:
		assert.Equal(t, "both", s.Output)
		assert.Equal(t, 2, s.Group)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported for external edit")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Error("Watch did not return after cancel")
	}
}

// --- MemStore tests ---

func TestMemStore_LoadDefault(t *testing.T) {
	st, err := config.NewMemStore().Load()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *st)
}

func TestMemStore_SaveReturnsCopy(t *testing.T) {
	store := config.NewMemStore()
	st := models.DefaultSettings()
	st.Output = "hp"
	require.NoError(t, store.Save(&st))
	st.Output = "both"

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "hp", loaded.Output)
	assert.Equal(t, 1, store.Saves())
	assert.Equal(t, ":memory:", store.Path())
}
