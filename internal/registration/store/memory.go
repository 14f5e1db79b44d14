package store

import (
	"context"
	"sync"

	"github.com/kaminfo102/form-insert-student/internal/registration/models"
	"github.com/kaminfo102/form-insert-student/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in a map. It backs unit tests and favors
// clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Registration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.Registration)}
}

func (s *InMemoryStore) FindByNationalID(_ context.Context, nationalID string) (models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if reg, ok := s.records[nationalID]; ok {
		return reg, nil
	}
	return models.Registration{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Create(_ context.Context, reg models.Registration) (models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[reg.NationalID]; ok {
		return models.Registration{}, sentinel.ErrConflict
	}
	s.records[reg.NationalID] = reg
	return reg, nil
}

// Len reports how many records exist; test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
