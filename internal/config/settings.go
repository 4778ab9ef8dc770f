package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

// Settings are the user-facing selections every graph read and write is
// scoped by. An empty Dataset means no dataset is selected.
type Settings struct {
	DbMode  graph.DbMode `yaml:"db_mode" json:"dbMode"`
	Dataset string       `yaml:"dataset" json:"dataset"`
}

// DefaultSettings is used when no settings file exists yet.
func DefaultSettings() Settings {
	return Settings{DbMode: graph.ModeLocal}
}

// SettingsPatch carries a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	DbMode  *graph.DbMode `json:"dbMode,omitempty"`
	Dataset *string       `json:"dataset,omitempty"`
}

// SettingsStore holds the current settings, persists them to a YAML file and
// notifies subscribers of changes, whether made through Update or by editing
// the file.
type SettingsStore struct {
	path      string
	current   Settings
	callbacks []func(Settings)
	mu        sync.RWMutex
	writeMu   sync.Mutex
	logger    *zap.Logger

	// pending changes, delivered oldest first by a single notifier.
	pending   []Settings
	notifying bool

	watcher  *settingsWatcher
	stopOnce sync.Once
}

// OpenSettings reads the settings file at path, creating it with defaults
// when it does not exist.
func OpenSettings(path string, logger *zap.Logger) (*SettingsStore, error) {
	s := &SettingsStore{
		path:   path,
		logger: logger,
	}

	current, err := readSettings(path)
	if os.IsNotExist(err) {
		current = DefaultSettings()
		if err := writeSettings(path, current); err != nil {
			return nil, err
		}
		logger.Info("Created settings file with defaults", zap.String("path", path))
	} else if err != nil {
		return nil, err
	}

	s.current = current
	return s, nil
}

// Get returns the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Path returns the backing file.
func (s *SettingsStore) Path() string {
	return s.path
}

// Update applies patch, persists the result and notifies subscribers when
// anything changed.
func (s *SettingsStore) Update(patch SettingsPatch) (Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Get()
	if patch.DbMode != nil {
		if !patch.DbMode.Valid() {
			return next, fmt.Errorf("invalid db mode %q", *patch.DbMode)
		}
		next.DbMode = *patch.DbMode
	}
	if patch.Dataset != nil {
		next.Dataset = *patch.Dataset
	}

	if err := writeSettings(s.path, next); err != nil {
		return s.Get(), err
	}

	s.apply(next)
	return next, nil
}

// OnChange registers a callback run after every change.
func (s *SettingsStore) OnChange(callback func(Settings)) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, callback)
	total := len(s.callbacks)
	s.mu.Unlock()

	s.logger.Debug("Registered settings change callback", zap.Int("total_callbacks", total))
}

// reload re-reads the file after an external edit.
func (s *SettingsStore) reload() {
	next, err := readSettings(s.path)
	if err != nil {
		s.logger.Error("Failed to reload settings", zap.String("path", s.path), zap.Error(err))
		return
	}
	if !next.DbMode.Valid() {
		s.logger.Error("Invalid settings after reload",
			zap.String("path", s.path),
			zap.String("db_mode", string(next.DbMode)),
		)
		return
	}
	s.apply(next)
}

func (s *SettingsStore) apply(next Settings) {
	s.mu.Lock()
	old := s.current
	if old == next {
		s.mu.Unlock()
		s.logger.Debug("Settings unchanged")
		return
	}
	s.current = next
	s.pending = append(s.pending, next)
	start := !s.notifying
	s.notifying = true
	s.mu.Unlock()

	s.logger.Info("Settings changed",
		zap.String("db_mode", fmt.Sprintf("%s -> %s", old.DbMode, next.DbMode)),
		zap.String("dataset", fmt.Sprintf("%q -> %q", old.Dataset, next.Dataset)),
	)

	if start {
		go s.notify()
	}
}

// notify drains pending changes in the order they were applied. Only one
// notifier runs at a time, so subscribers never see an older value after a
// newer one.
func (s *SettingsStore) notify() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.notifying = false
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		callbacks := make([]func(Settings), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.Unlock()

		for i, callback := range callbacks {
			s.deliver(i, callback, next)
		}
	}
}

func (s *SettingsStore) deliver(idx int, cb func(Settings), next Settings) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Settings callback panicked",
				zap.Int("callback_index", idx),
				zap.Any("panic", r),
			)
		}
	}()
	cb(next)
}

func readSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	settings := DefaultSettings()
	if len(bytes.TrimSpace(data)) == 0 {
		return settings, nil
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return settings, nil
}

// writeSettings replaces the file atomically so watchers never read a
// half-written document.
func writeSettings(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
