package memory

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/aretw0/ingest/pkg/domain"
)

// ObjectStore implements ports.ObjectStore in memory.
// Identifiers are allocated sequentially per namespace.
type ObjectStore struct {
	mu       sync.RWMutex
	objects  map[string]*domain.DraftObject
	counters map[string]int
	baseURL  string

	// FailOn makes Create fail for the listed ids. Used to exercise partial failures.
	FailOn map[string]error
}

// ObjectStoreOption configures the ObjectStore.
type ObjectStoreOption func(*ObjectStore)

// WithBaseURL sets the prefix of the locations returned by Create.
func WithBaseURL(base string) ObjectStoreOption {
	return func(s *ObjectStore) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// NewObjectStore creates an empty object store.
func NewObjectStore(opts ...ObjectStoreOption) *ObjectStore {
	s := &ObjectStore{
		objects:  make(map[string]*domain.DraftObject),
		counters: make(map[string]int),
		baseURL:  "/objects",
		FailOn:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextID allocates "<namespace>:<n>".
func (s *ObjectStore) NextID(ctx context.Context, namespace string) (string, error) {
	if namespace == "" {
		return "", fmt.Errorf("namespace cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		s.counters[namespace]++
		id := fmt.Sprintf("%s:%d", namespace, s.counters[namespace])
		if _, taken := s.objects[id]; !taken {
			return id, nil
		}
	}
}

// Create stores a copy of the draft.
func (s *ObjectStore) Create(ctx context.Context, obj *domain.DraftObject) (domain.PersistedObject, error) {
	if obj == nil || obj.ID == "" {
		return domain.PersistedObject{}, fmt.Errorf("object id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailOn[obj.ID]; ok {
		return domain.PersistedObject{}, err
	}
	if _, exists := s.objects[obj.ID]; exists {
		return domain.PersistedObject{}, fmt.Errorf("%w: %s", domain.ErrObjectExists, obj.ID)
	}
	s.objects[obj.ID] = obj.Clone()

	return domain.PersistedObject{
		ID:       obj.ID,
		Label:    obj.Label,
		Location: s.baseURL + "/" + url.PathEscape(obj.ID),
	}, nil
}

// Get returns a copy of a stored object.
func (s *ObjectStore) Get(ctx context.Context, id string) (*domain.DraftObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, id)
	}
	return obj.Clone(), nil
}

// Exists reports whether id is stored.
func (s *ObjectStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[id]
	return ok, nil
}

// Delete removes an object.
func (s *ObjectStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, id)
	return nil
}

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
