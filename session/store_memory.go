package session

import (
	"context"
	"sync"
	"time"
)

// memoryStore keeps records in process. Records are stored by value so
// callers cannot reach into the map through a returned pointer.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	closed  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]Record)}
}

func (s *memoryStore) Create(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.records[rec.ID]; ok {
		return ErrAlreadyExists
	}

	now := time.Now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	rec.Version = 1
	s.records[rec.ID] = *rec
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memoryStore) Update(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	stored, ok := s.records[rec.ID]
	switch {
	case !ok:
		return ErrNotFound
	case stored.Version != rec.Version:
		return ErrVersionConflict
	}

	rec.Version++
	rec.CreatedAt = stored.CreatedAt
	rec.UpdatedAt = time.Now()
	s.records[rec.ID] = *rec
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.records, id)
	return nil
}

// Close drops every record. Later calls return ErrStoreClosed.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = make(map[string]Record)
	return nil
}
