package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Registry provides definition lookup with an in-memory cache over a
// Repository. Concurrent cache misses for the same name are deduplicated
// with singleflight so a burst of plan requests hits the backing store once.
type Registry struct {
	repo Repository

	mu        sync.RWMutex
	cache     map[string]*Definition
	loadGroup singleflight.Group
}

// NewRegistry creates a new definition registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:  repo,
		cache: make(map[string]*Definition),
	}
}

// Get retrieves a definition by name, from cache when possible.
func (r *Registry) Get(ctx context.Context, name string) (*Definition, error) {
	r.mu.RLock()
	if def, exists := r.cache[name]; exists {
		r.mu.RUnlock()
		cp := *def
		return &cp, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.loadGroup.Do(name, func() (interface{}, error) {
		def, err := r.repo.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[name] = def
		r.mu.Unlock()
		return def, nil
	})
	if err != nil {
		return nil, err
	}

	cp := *(v.(*Definition))
	return &cp, nil
}

// List returns all definitions, optionally filtered by kind. Reads go to
// the repository directly; the cache only serves point lookups.
func (r *Registry) List(ctx context.Context, kind Kind) ([]*Definition, error) {
	return r.repo.List(ctx, kind)
}

// Register validates and stores a new definition, assigning its ID and
// timestamps.
func (r *Registry) Register(ctx context.Context, def *Definition) (*Definition, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	cp := *def
	cp.ID = uuid.New().String()
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now

	if err := r.repo.Create(ctx, &cp); err != nil {
		return nil, fmt.Errorf("storing definition %q: %w", cp.Name, err)
	}

	r.mu.Lock()
	r.cache[cp.Name] = &cp
	r.mu.Unlock()

	out := cp
	return &out, nil
}
