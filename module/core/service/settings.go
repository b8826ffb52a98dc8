package service

import (
	"fmt"
	"sync/atomic"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

// SettingsProvider hands out read-only settings snapshots.
type SettingsProvider interface {
	Snapshot() domain.Settings
}

var _ SettingsProvider = (*SettingsStore)(nil)

// SettingsStore swaps whole snapshots atomically. Readers always get a
// copy so nothing downstream can mutate the shared value.
type SettingsStore struct {
	current atomic.Pointer[domain.Settings]
}

func NewSettingsStore(initial domain.Settings) *SettingsStore {
	s := &SettingsStore{}
	v := initial.Clone()
	s.current.Store(&v)
	return s
}

func (s *SettingsStore) Snapshot() domain.Settings {
	return s.current.Load().Clone()
}

func (s *SettingsStore) Update(next domain.Settings) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	v := next.Clone()
	s.current.Store(&v)
	return nil
}
