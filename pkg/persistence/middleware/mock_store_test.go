package middleware_test

import (
	"context"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
)

// MockStore keeps whatever it is given, without copying, so tests can inspect
// exactly what a middleware passed down.
type MockStore struct {
	data map[string]*domain.WizardState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.WizardState),
	}
}

func (s *MockStore) Save(ctx context.Context, sessionID string, state *domain.WizardState) error {
	s.data[sessionID] = state
	return nil
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.WizardState, error) {
	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state, nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.StateStore = (*MockStore)(nil)
