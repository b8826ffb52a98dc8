package service

import (
	"slices"
	"sync"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

// InterestProvider yields the categories the user currently cares about.
type InterestProvider interface {
	ActiveCategories() []domain.PlaceCategory
}

var _ InterestProvider = (*InterestStore)(nil)

// InterestStore keeps the open list items pushed by the host.
type InterestStore struct {
	mu    sync.RWMutex
	items []domain.ListItem
}

func NewInterestStore() *InterestStore {
	return &InterestStore{}
}

// SetItems replaces the stored items, keeping only open ones.
func (s *InterestStore) SetItems(items []domain.ListItem) {
	open := make([]domain.ListItem, 0, len(items))
	for _, it := range items {
		if !it.Completed {
			open = append(open, it)
		}
	}

	s.mu.Lock()
	s.items = open
	s.mu.Unlock()
}

func (s *InterestStore) Items() []domain.ListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *InterestStore) ActiveCategories() []domain.PlaceCategory {
	return domain.InferCategories(s.Items())
}
