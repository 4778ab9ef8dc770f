package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/domain/graph"
)

type settingsRecorder struct {
	mu   sync.Mutex
	seen []config.Settings
}

func (r *settingsRecorder) record(s config.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *settingsRecorder) last() (config.Settings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return config.Settings{}, false
	}
	return r.seen[len(r.seen)-1], true
}

func TestOpenSettings_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	store, err := config.OpenSettings(path, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), store.Get())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSettingsStore_UpdatePersistsAndNotifies(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := config.OpenSettings(path, zap.NewNop())
	require.NoError(t, err)
	rec := &settingsRecorder{}
	store.OnChange(rec.record)

	mode := graph.ModeSync
	dataset := "ds1"

	// Act
	updated, err := store.Update(config.SettingsPatch{DbMode: &mode, Dataset: &dataset})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, config.Settings{DbMode: graph.ModeSync, Dataset: "ds1"}, updated)
	assert.Eventually(t, func() bool {
		s, ok := rec.last()
		return ok && s == updated
	}, time.Second, 10*time.Millisecond)

	reopened, err := config.OpenSettings(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, updated, reopened.Get())
}

func TestSettingsStore_UpdateRejectsUnknownMode(t *testing.T) {
	store, err := config.OpenSettings(filepath.Join(t.TempDir(), "settings.yaml"), zap.NewNop())
	require.NoError(t, err)
	bad := graph.DbMode("cloud")

	_, err = store.Update(config.SettingsPatch{DbMode: &bad})

	assert.Error(t, err)
	assert.Equal(t, graph.ModeLocal, store.Get().DbMode)
}

func TestSettingsStore_PartialPatchKeepsOtherField(t *testing.T) {
	store, err := config.OpenSettings(filepath.Join(t.TempDir(), "settings.yaml"), zap.NewNop())
	require.NoError(t, err)
	dataset := "ds2"

	updated, err := store.Update(config.SettingsPatch{Dataset: &dataset})

	require.NoError(t, err)
	assert.Equal(t, graph.ModeLocal, updated.DbMode)
	assert.Equal(t, "ds2", updated.Dataset)
}

func TestSettingsStore_WatchReloadsExternalEdits(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := config.OpenSettings(path, zap.NewNop())
	require.NoError(t, err)
	rec := &settingsRecorder{}
	store.OnChange(rec.record)
	require.NoError(t, store.Watch())
	defer store.Stop()

	// Act
	require.NoError(t, os.WriteFile(path, []byte("db_mode: remote\ndataset: ds9\n"), 0o644))

	// Assert
	want := config.Settings{DbMode: graph.ModeRemote, Dataset: "ds9"}
	assert.Eventually(t, func() bool {
		return store.Get() == want
	}, 5*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool {
		s, ok := rec.last()
		return ok && s == want
	}, time.Second, 10*time.Millisecond)
}

func TestSettingsStore_StopIsIdempotent(t *testing.T) {
	store, err := config.OpenSettings(filepath.Join(t.TempDir(), "settings.yaml"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Watch())

	store.Stop()
	store.Stop()
}

func TestSettingsStore_CallbacksSeeUpdatesInOrder(t *testing.T) {
	// Arrange
	store, err := config.OpenSettings(filepath.Join(t.TempDir(), "settings.yaml"), zap.NewNop())
	require.NoError(t, err)
	rec := &settingsRecorder{}
	store.OnChange(rec.record)
	datasets := []string{"ds0", "ds1", "ds2", "ds3", "ds4", "ds5", "ds6", "ds7"}

	// Act
	for _, ds := range datasets {
		ds := ds
		_, err := store.Update(config.SettingsPatch{Dataset: &ds})
		require.NoError(t, err)
	}

	// Assert
	require.Eventually(t, func() bool {
		s, ok := rec.last()
		return ok && s.Dataset == "ds7"
	}, time.Second, 5*time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.seen, len(datasets))
	for i, s := range rec.seen {
		assert.Equal(t, datasets[i], s.Dataset)
	}
}

func TestSettingsStore_PanickingCallbackDoesNotStopOthers(t *testing.T) {
	store, err := config.OpenSettings(filepath.Join(t.TempDir(), "settings.yaml"), zap.NewNop())
	require.NoError(t, err)
	store.OnChange(func(config.Settings) { panic("boom") })
	rec := &settingsRecorder{}
	store.OnChange(rec.record)

	first, second := "a", "b"
	_, err = store.Update(config.SettingsPatch{Dataset: &first})
	require.NoError(t, err)
	_, err = store.Update(config.SettingsPatch{Dataset: &second})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		s, ok := rec.last()
		return ok && s.Dataset == "b"
	}, time.Second, 5*time.Millisecond)
}
