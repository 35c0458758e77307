package history

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"infographic/internal/report"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items []report.HistoryItem // newest first
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, item report.HistoryItem) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := validateItem(item); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(s.items, func(h report.HistoryItem) bool { return h.ID == item.ID })
	at, _ := slices.BinarySearchFunc(s.items, item, func(h, target report.HistoryItem) int {
		if newer(h, target) {
			return -1
		}
		return 1
	})
	s.items = slices.Insert(s.items, at, item)
	if len(s.items) > report.MaxHistory {
		s.items = s.items[:report.MaxHistory]
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]report.HistoryItem, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	limit = clampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := min(limit, len(s.items))
	return slices.Clone(s.items[:n]), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (report.HistoryItem, error) {
	if s == nil {
		return report.HistoryItem{}, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.items {
		if h.ID == id {
			return h, nil
		}
	}
	return report.HistoryItem{}, ErrNotFound
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.items)
	s.items = slices.DeleteFunc(s.items, func(h report.HistoryItem) bool { return h.ID == id })
	if len(s.items) == before {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	return nil
}
