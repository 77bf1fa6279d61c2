package persona

import (
	"context"
	"fmt"
	"sync"

	"github.com/BerylCAtieno/clientlens/internal/models"
)

// MemoryStore keeps personas for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	personas []models.Persona
	index    map[string]int
}

// NewMemoryStore creates a store holding a copy of seed, in order.
func NewMemoryStore(seed []models.Persona) (*MemoryStore, error) {
	s := &MemoryStore{
		personas: make([]models.Persona, 0, len(seed)),
		index:    make(map[string]int, len(seed)),
	}
	for _, p := range seed {
		if p.ID == "" {
			return nil, fmt.Errorf("seeding persona %q: missing id", p.Name)
		}
		if _, ok := s.index[p.ID]; ok {
			return nil, fmt.Errorf("seeding persona %q: %w", p.ID, ErrDuplicateID)
		}
		s.index[p.ID] = len(s.personas)
		s.personas = append(s.personas, p.Clone())
	}
	return s, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]models.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Persona, len(s.personas))
	for i, p := range s.personas {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Persona{}, fmt.Errorf("persona %q: %w", id, ErrNotFound)
	}
	return s.personas[i].Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch models.PersonaPatch) (models.Persona, error) {
	if err := patch.Validate(); err != nil {
		return models.Persona{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return models.Persona{}, fmt.Errorf("persona %q: %w", id, ErrNotFound)
	}
	s.personas[i] = s.personas[i].Apply(patch)
	return s.personas[i].Clone(), nil
}
