package catalog

import (
	"context"
	"errors"
)

// ErrAlreadyExists is returned when a definition with the same name has
// already been created.
var ErrAlreadyExists = errors.New("definition already exists")

// Repository defines the interface for definition storage.
type Repository interface {
	// Create stores a new definition. Returns ErrAlreadyExists if a
	// definition with the same name exists.
	Create(ctx context.Context, def *Definition) error

	// Get retrieves a definition by name. Returns core errors.ErrNotFound
	// when absent.
	Get(ctx context.Context, name string) (*Definition, error)

	// List returns all definitions, optionally filtered by kind.
	List(ctx context.Context, kind Kind) ([]*Definition, error)
}
