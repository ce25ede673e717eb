package ports

import (
	"context"

	"github.com/aretw0/ingest/pkg/domain"
)

// ObjectStore persists repository objects.
type ObjectStore interface {
	// NextID allocates a fresh identifier in the namespace.
	NextID(ctx context.Context, namespace string) (string, error)

	// Create persists a draft. It returns domain.ErrObjectExists if the id is taken.
	Create(ctx context.Context, obj *domain.DraftObject) (domain.PersistedObject, error)

	// Get loads a persisted object. Returns domain.ErrObjectNotFound if missing.
	Get(ctx context.Context, id string) (*domain.DraftObject, error)

	// Exists reports whether an object is stored under id.
	Exists(ctx context.Context, id string) (bool, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, id string) error
}
