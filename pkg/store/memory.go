package store

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*Snapshot)}
}

func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	cp := *snap
	s.mu.Lock()
	s.snaps[snap.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *snap
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.snaps))
	for _, snap := range s.snaps {
		out = append(out, snap.Summary())
	}
	s.mu.RUnlock()
	return sortAndLimit(out, limit), nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
