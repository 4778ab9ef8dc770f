package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const settingsDebounce = 500 * time.Millisecond

type settingsWatcher struct {
	fs     *fsnotify.Watcher
	stopCh chan struct{}
	doneCh chan struct{}
}

// Watch starts hot reloading of the settings file. The parent directory is
// watched because editors and Update both replace the file by rename.
func (s *SettingsStore) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &settingsWatcher{
		fs:     fsWatcher,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	s.watcher = w
	go s.watchLoop(w)

	s.logger.Info("Settings hot reloading enabled", zap.String("path", s.path))
	return nil
}

func (s *SettingsStore) watchLoop(w *settingsWatcher) {
	defer close(w.doneCh)
	defer w.fs.Close()

	target := filepath.Clean(s.path)
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			s.logger.Debug("Settings file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(settingsDebounce, s.reload)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			s.logger.Error("Settings watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

// Stop ends hot reloading. It is safe to call more than once.
func (s *SettingsStore) Stop() {
	s.stopOnce.Do(func() {
		s.mu.RLock()
		w := s.watcher
		s.mu.RUnlock()
		if w == nil {
			return
		}
		close(w.stopCh)
		<-w.doneCh
		s.logger.Info("Stopped settings watcher")
	})
}
