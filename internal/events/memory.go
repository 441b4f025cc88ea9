package events

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]*Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]*Event)}
}

func (s *MemoryStore) Record(_ context.Context, e *Event) error {
	if e == nil || e.Campaign == "" {
		return errors.New("event campaign is required")
	}
	prepare(e)

	cp := *e
	s.mu.Lock()
	s.events[e.Campaign] = append(s.events[e.Campaign], &cp)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context, campaign string, limit int) ([]*Event, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.events[campaign]
	res := make([]*Event, 0, limit)
	for i := len(all) - 1; i >= 0 && len(res) < limit; i-- {
		cp := *all[i]
		res = append(res, &cp)
	}
	return res, nil
}
