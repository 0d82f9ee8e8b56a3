package catalog

import (
	"context"
	"sync"

	cerr "github.com/windrose-analytics/windrose/internal/core/errors"
)

// MemoryRepository is an in-memory implementation of Repository. It backs
// the service when no database is configured (definitions are ephemeral)
// and the tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewMemoryRepository creates a new in-memory definition repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		defs: make(map[string]*Definition),
	}
}

func (r *MemoryRepository) Create(_ context.Context, def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return ErrAlreadyExists
	}

	// Store a copy to prevent external modification
	cp := *def
	r.defs[def.Name] = &cp
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.defs[name]
	if !exists {
		return nil, cerr.ErrNotFound
	}

	cp := *def
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, kind Kind) ([]*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Definition
	for _, def := range r.defs {
		if kind != "" && def.Kind != kind {
			continue
		}
		cp := *def
		result = append(result, &cp)
	}
	return result, nil
}
