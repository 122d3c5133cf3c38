package storage

import (
	"context"
	"sync"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// MemoryStore keeps specifications in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	specs map[string]*domain.StoredSpec
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{specs: make(map[string]*domain.StoredSpec)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.StoredSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec, ok := s.specs[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(spec), nil
}

func (s *MemoryStore) Put(_ context.Context, spec *domain.StoredSpec) error {
	if err := ValidateID(spec.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.specs[spec.ID] = clone(spec)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.specs[id]; !ok {
		return notFound(id)
	}
	delete(s.specs, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*domain.StoredSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.StoredSpec, 0, len(s.specs))
	for _, spec := range s.specs {
		out = append(out, clone(spec))
	}
	sortByID(out)

	return out, nil
}
