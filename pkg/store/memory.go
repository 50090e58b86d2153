package store

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	records     map[string]Record
	runs        map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.records = make(map[string]Record)
	s.runs = make(map[string][]string)
	return nil
}

func (s *MemoryStore) SaveProgram(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	old, seen := s.records[rec.ID]
	if seen && old.RunID != rec.RunID {
		s.runs[old.RunID] = remove(s.runs[old.RunID], rec.ID)
		seen = false
	}
	if !seen {
		s.runs[rec.RunID] = append(s.runs[rec.RunID], rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetProgram(_ context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Record{}, false, ErrNotInitialized
	}
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s *MemoryStore) ListPrograms(_ context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	ids := s.runs[runID]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
