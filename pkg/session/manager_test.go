package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/ingest/pkg/adapters/memory"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
	"github.com/aretw0/ingest/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore adds latency so missing locking would lose updates.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Save(ctx context.Context, sessionID string, state *domain.WizardState) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, sessionID, state)
}

func (s slowStore) Load(ctx context.Context, sessionID string) (*domain.WizardState, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, sessionID)
}

func TestManager_UpdateSerializes(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, domain.NewWizardState(id, domain.Configuration{})))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(ctx context.Context, s *domain.WizardState) (session.Outcome, error) {
				s.CurrentStep++
				return session.Persist, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, state.CurrentStep, "read-modify-write cycles must not interleave")
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "atomic-init"

	var starts atomic.Int32
	start := func(ctx context.Context) (*domain.WizardState, error) {
		starts.Add(1)
		s := domain.NewWizardState("", domain.Configuration{Label: "first"})
		s.AppendStep(domain.Step{ID: "a"})
		return s, nil
	}

	var wg sync.WaitGroup
	var createdCount atomic.Int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, created, err := manager.LoadOrStart(ctx, id, start)
			assert.NoError(t, err)
			assert.NotNil(t, state)
			if created {
				createdCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), starts.Load())
	assert.Equal(t, int32(1), createdCount.Load())

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, state.SessionID)
	assert.Equal(t, "first", state.Config.Label)
}

func TestManager_LoadOrStartError(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	boom := errors.New("boom")

	_, created, err := manager.LoadOrStart(context.Background(), "x", func(context.Context) (*domain.WizardState, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, created)

	_, err = manager.Load(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_UpdateOutcomes(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	id := "outcomes"
	require.NoError(t, manager.Save(ctx, id, domain.NewWizardState(id, domain.Configuration{})))

	rejected := errors.New("rejected")
	_, err := manager.Update(ctx, id, func(ctx context.Context, s *domain.WizardState) (session.Outcome, error) {
		s.Values["typed"] = "kept"
		return session.Persist, rejected
	})
	assert.ErrorIs(t, err, rejected)

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "kept", state.Values["typed"], "persisted despite the error")

	_, err = manager.Update(ctx, id, func(ctx context.Context, s *domain.WizardState) (session.Outcome, error) {
		s.Values["typed"] = "dropped"
		return session.Discard, nil
	})
	require.NoError(t, err)
	state, _ = manager.Load(ctx, id)
	assert.Equal(t, "kept", state.Values["typed"])

	_, err = manager.Update(ctx, id, func(ctx context.Context, s *domain.WizardState) (session.Outcome, error) {
		return session.Remove, nil
	})
	require.NoError(t, err)
	_, err = manager.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = manager.Update(ctx, "missing", func(ctx context.Context, s *domain.WizardState) (session.Outcome, error) {
		t.Fatal("must not run for a missing session")
		return session.Discard, nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type countingLocker struct {
	locks, unlocks atomic.Int32
	ttl            time.Duration
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.locks.Add(1)
	l.ttl = ttl
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "d", domain.NewWizardState("d", domain.Configuration{})))
	_, err := manager.Load(ctx, "d")
	require.NoError(t, err)

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())
	assert.Equal(t, 5*time.Second, locker.ttl)
}
