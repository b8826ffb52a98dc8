package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

// LoadSettings reads the YAML settings file over the defaults. A missing
// file or empty path yields the defaults.
func LoadSettings(path string) (domain.Settings, error) {
	s := domain.DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

type settingsUpdater interface {
	Update(next domain.Settings) error
}

// SettingsWatcher reloads the settings file when it changes. A file that
// fails to parse or validate leaves the current snapshot in place.
type SettingsWatcher struct {
	path    string
	store   settingsUpdater
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewSettingsWatcher watches the file's directory so editors that
// replace the file are still seen.
func NewSettingsWatcher(path string, store settingsUpdater, logger *slog.Logger) (*SettingsWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("settings watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("settings path: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &SettingsWatcher{path: abs, store: store, watcher: fsw, logger: logger}, nil
}

// Run blocks until ctx is done.
func (w *SettingsWatcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || (!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create)) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("settings watcher error", "error", err)
		}
	}
}

func (w *SettingsWatcher) reload() {
	s, err := LoadSettings(w.path)
	if err != nil {
		w.logger.Warn("settings reload rejected", "path", w.path, "error", err)
		return
	}
	if err := w.store.Update(s); err != nil {
		w.logger.Warn("settings reload rejected", "path", w.path, "error", err)
		return
	}
	w.logger.Info("settings reloaded", "path", w.path)
}
