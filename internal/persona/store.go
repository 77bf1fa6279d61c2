// Package persona holds the customer persona collection that the workflows
// read from and write confirmed updates into.
package persona

import (
	"context"
	"errors"

	"github.com/BerylCAtieno/clientlens/internal/models"
)

var (
	// ErrNotFound is returned when no persona has the requested id.
	ErrNotFound = errors.New("persona not found")

	// ErrDuplicateID is returned when seeding a store with a repeated id.
	ErrDuplicateID = errors.New("duplicate persona id")
)

// Store is the persona collection. Implementations return copies, so callers
// never share slices with the stored records.
type Store interface {
	// List returns every persona in insertion order.
	List(ctx context.Context) ([]models.Persona, error)

	// Get returns the persona with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (models.Persona, error)

	// Update merges patch over the persona with the given id and returns the
	// result. An absent id yields ErrNotFound and leaves the store unchanged.
	Update(ctx context.Context, id string, patch models.PersonaPatch) (models.Persona, error)
}
