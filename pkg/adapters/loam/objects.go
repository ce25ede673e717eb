package loam

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/google/uuid"
)

var _ ports.ObjectStore = (*ObjectStore)(nil)

// ObjectStore implements ports.ObjectStore on a Loam repository.
// Identifiers are "<namespace>:<uuid>".
type ObjectStore struct {
	repo  core.Repository
	typed *loam.TypedRepository[domain.DraftObject]
	base  string

	mu sync.Mutex
}

// ObjectOption configures the ObjectStore.
type ObjectOption func(*ObjectStore)

// WithLocationPrefix sets the prefix of the locations returned by Create.
func WithLocationPrefix(prefix string) ObjectOption {
	return func(s *ObjectStore) {
		s.base = strings.TrimRight(prefix, "/")
	}
}

// NewObjectStore wraps an initialized Loam repository.
func NewObjectStore(repo core.Repository, opts ...ObjectOption) *ObjectStore {
	s := &ObjectStore{
		repo:  repo,
		typed: loam.NewTypedRepository[domain.DraftObject](repo),
		base:  "/objects",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var docNameReplacer = strings.NewReplacer(":", "_", "/", "_", `\`, "_")

// docID maps an object id to a file name safe on every platform.
func docID(id string) string {
	return "object_" + docNameReplacer.Replace(id)
}

// NextID allocates a random identifier in namespace.
func (s *ObjectStore) NextID(ctx context.Context, namespace string) (string, error) {
	if namespace == "" {
		return "", fmt.Errorf("namespace cannot be empty")
	}
	return namespace + ":" + uuid.NewString(), nil
}

// Create writes the object as a document. It fails with domain.ErrObjectExists
// when a document for the id is already present.
func (s *ObjectStore) Create(ctx context.Context, obj *domain.DraftObject) (domain.PersistedObject, error) {
	if obj == nil || obj.ID == "" {
		return domain.PersistedObject{}, fmt.Errorf("object id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(ctx, obj.ID)
	if err != nil {
		return domain.PersistedObject{}, err
	}
	if exists {
		return domain.PersistedObject{}, fmt.Errorf("%w: %s", domain.ErrObjectExists, obj.ID)
	}

	err = s.typed.Save(ctx, &loam.DocumentModel[domain.DraftObject]{
		ID:      docID(obj.ID) + ".md",
		Content: renderBody(obj),
		Data:    *obj.Clone(),
	})
	if err != nil {
		return domain.PersistedObject{}, fmt.Errorf("loam save failed for %s: %w", obj.ID, err)
	}

	return domain.PersistedObject{
		ID:       obj.ID,
		Label:    obj.Label,
		Location: s.base + "/" + obj.ID,
	}, nil
}

func renderBody(obj *domain.DraftObject) string {
	var b strings.Builder
	b.WriteString("# " + obj.Label + "\n")
	if d, ok := obj.Properties["description"].(string); ok && d != "" {
		b.WriteString("\n" + d + "\n")
	}
	return b.String()
}

// Get loads an object.
func (s *ObjectStore) Get(ctx context.Context, id string) (*domain.DraftObject, error) {
	doc, err := s.typed.Get(ctx, docID(id))
	if err != nil {
		if s.notFound(ctx, id, err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	obj := doc.Data
	if obj.ID == "" {
		obj.ID = id
	}
	if obj.Properties == nil {
		obj.Properties = make(map[string]any)
	}
	return &obj, nil
}

// Exists reports whether a document holds the object.
func (s *ObjectStore) Exists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, id)
}

func (s *ObjectStore) exists(ctx context.Context, id string) (bool, error) {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return false, fmt.Errorf("loam list failed: %w", err)
	}
	for _, doc := range docs {
		if doc.Data.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// notFound tells a missing document apart from a read failure.
func (s *ObjectStore) notFound(ctx context.Context, id string, err error) bool {
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	exists, listErr := s.exists(ctx, id)
	return listErr == nil && !exists
}

// Delete removes the object document. Missing objects are ignored.
func (s *ObjectStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := s.repo.Delete(ctx, docID(id)); err != nil {
		return fmt.Errorf("loam delete failed for %s: %w", id, err)
	}
	return nil
}

// List returns the ids of every stored object.
func (s *ObjectStore) List(ctx context.Context) ([]string, error) {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Data.ID != "" {
			ids = append(ids, doc.Data.ID)
		}
	}
	return ids, nil
}
