package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewWizardState(sessionID, domain.Configuration{
			Label:       "Contract",
			Collections: []string{"col:1"},
			Models:      []string{"model:basic"},
		})
		state.AppendStep(domain.Step{ID: "details", Weight: -5, Type: domain.StepTypeForm, Renderer: "details"})
		state.AppendStep(domain.Step{ID: "upload", Weight: 10, Type: domain.StepTypeForm, Renderer: "upload"})
		state.Steps[0].StoredValues = map[string]any{"label": "stored"}
		state.Objects = append(state.Objects, domain.NewDraftObject("ns:1", "Contract"))
		state.CurrentStep = 1
		state.Values["foo"] = "bar"

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, 1, loaded.CurrentStep)
		require.Len(t, loaded.Steps, 2)
		assert.Equal(t, "details", loaded.Steps[0].ID)
		assert.Equal(t, "stored", loaded.Steps[0].StoredValues["label"])
		require.Len(t, loaded.Objects, 1)
		assert.Equal(t, "ns:1", loaded.Objects[0].ID)
		assert.Equal(t, "bar", loaded.Values["foo"])
		assert.Equal(t, []string{"col:1"}, loaded.Config.Collections)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewWizardState(sessionID, domain.Configuration{}))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewWizardState(id1, domain.Configuration{}))
		_ = store.Save(ctx, id2, domain.NewWizardState(id2, domain.Configuration{}))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunObjectStoreContract verifies that an ObjectStore implementation honours the port.
func RunObjectStoreContract(t *testing.T, store ObjectStore) {
	ctx := context.Background()

	t.Run("NextID is unique within namespace", func(t *testing.T) {
		a, err := store.NextID(ctx, "contract")
		require.NoError(t, err)
		b, err := store.NextID(ctx, "contract")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
		assert.Contains(t, a, "contract:")
	})

	t.Run("Create and Get", func(t *testing.T) {
		id, err := store.NextID(ctx, "contract")
		require.NoError(t, err)

		obj := domain.NewDraftObject(id, "Contract Object")
		obj.Relate(domain.RelMemberOfCollection, "col:root")
		obj.Properties["description"] = "created by contract"
		obj.SetDatastream(domain.Datastream{ID: "OBJ", MimeType: "text/plain", Content: "hello"})

		persisted, err := store.Create(ctx, obj)
		require.NoError(t, err)
		assert.Equal(t, id, persisted.ID)
		assert.Equal(t, "Contract Object", persisted.Label)
		assert.NotEmpty(t, persisted.Location)

		exists, err := store.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists)

		loaded, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Contract Object", loaded.Label)
		assert.Equal(t, []string{"col:root"}, loaded.RelationshipsFor(domain.RelMemberOfCollection))
		require.Len(t, loaded.Datastreams, 1)
		assert.Equal(t, "hello", loaded.Datastreams[0].Content)
	})

	t.Run("Create duplicate", func(t *testing.T) {
		id, err := store.NextID(ctx, "contract")
		require.NoError(t, err)
		_, err = store.Create(ctx, domain.NewDraftObject(id, "first"))
		require.NoError(t, err)

		_, err = store.Create(ctx, domain.NewDraftObject(id, "second"))
		assert.ErrorIs(t, err, domain.ErrObjectExists)
	})

	t.Run("Get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "contract:missing")
		assert.ErrorIs(t, err, domain.ErrObjectNotFound)

		exists, err := store.Exists(ctx, "contract:missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Delete", func(t *testing.T) {
		id, err := store.NextID(ctx, "contract")
		require.NoError(t, err)
		_, err = store.Create(ctx, domain.NewDraftObject(id, "doomed"))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, id))
		exists, err := store.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, exists)

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})
}
