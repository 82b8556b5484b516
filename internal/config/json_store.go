package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/micro-nova/acodec-go/internal/models"
)

const (
	configFileName = "settings.json"
	debounceDelay  = 500 * time.Millisecond
)

// JSONStore is an atomic JSON file store with debounced writes.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	timer   *time.Timer
	pending *models.Settings
	written []byte
}

// NewJSONStore creates a new JSON store in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, configFileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load reads the settings from disk. Fields missing from the file keep their
// default. Returns DefaultSettings on ENOENT or parse errors.
func (s *JSONStore) Load() (*models.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := models.DefaultSettings()
			return &def, nil
		}
		return nil, err
	}
	st, err := decode(data)
	if err != nil {
		slog.Warn("config: corrupt JSON settings, using defaults", "path", s.path, "err", err)
		def := models.DefaultSettings()
		return &def, nil
	}
	return st, nil
}

func decode(data []byte) (*models.Settings, error) {
	st := models.DefaultSettings()
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Save schedules a debounced write of the settings to disk.
// The actual write happens after 500ms of no further Save calls.
func (s *JSONStore) Save(st *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := st.DeepCopy()
	s.pending = &cp

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		p := s.pending
		s.pending = nil
		s.mu.Unlock()
		if p != nil {
			if err := s.writeAtomic(p); err != nil {
				slog.Error("config: failed to write settings", "path", s.path, "err", err)
			}
		}
	})
	return nil
}

// Flush forces an immediate write of any pending settings.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	p := s.pending
	s.pending = nil
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	return s.writeAtomic(p)
}

func (s *JSONStore) writeAtomic(st *models.Settings) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	s.mu.Lock()
	s.written = data
	s.mu.Unlock()

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// ownWrite reports whether data is what this store last wrote.
func (s *JSONStore) ownWrite(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written != nil && bytes.Equal(s.written, data)
}

// Watch calls onChange with the decoded settings each time the file is
// edited by another process, until ctx is done. Writes made by this store and
// files that do not parse are ignored.
func (s *JSONStore) Watch(ctx context.Context, onChange func(models.Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			data, err := os.ReadFile(s.path)
			if err != nil {
				slog.Warn("config: failed to read edited settings", "err", err)
				continue
			}
			if s.ownWrite(data) {
				continue
			}
			st, err := decode(data)
			if err != nil {
				slog.Warn("config: ignoring unparsable settings edit", "path", s.path, "err", err)
				continue
			}
			slog.Info("config: settings edited externally", "path", s.path)
			onChange(*st)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}

// Ensure JSONStore implements config.Store
var _ Store = (*JSONStore)(nil)
