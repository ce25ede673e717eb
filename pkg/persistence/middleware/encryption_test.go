package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/ingest/pkg/adapters/memory"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/persistence/middleware"
	"github.com/aretw0/ingest/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunStateStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "test-session"
	original := domain.NewWizardState(sessionID, domain.Configuration{Label: "Confidential"})
	original.Values["secret"] = "my-secret-sauce"

	require.NoError(t, secureStore.Save(ctx, sessionID, original))

	stored, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, stored.Values, "values must not reach the inner store")
	assert.Empty(t, stored.Config.Label)
	assert.NotEmpty(t, stored.Sealed)
	assert.Equal(t, domain.StatusActive, stored.Status)

	loaded, err := secureStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Values["secret"])
	assert.Equal(t, "Confidential", loaded.Config.Label)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	sessionID := "rotation-session"
	original := domain.NewWizardState(sessionID, domain.Configuration{})
	original.Values["data"] = "encrypted-with-old-key"
	require.NoError(t, secureStoreOld.Save(ctx, sessionID, original))

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "encrypted-with-old-key", loaded.Values["data"])

	loaded.Values["data"] = "encrypted-with-new-key"
	require.NoError(t, secureStoreNew.Save(ctx, sessionID, loaded))

	_, err = secureStoreOld.Load(ctx, sessionID)
	assert.Error(t, err, "old key alone cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	ctx := context.Background()
	require.NoError(t, underlyingStore.Save(ctx, "plain", domain.NewWizardState("plain", domain.Configuration{})))

	_, err := secureStore.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey(strings.Repeat("ab", 8))
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	inner := NewMockStore()
	store := middleware.Chain(inner,
		middleware.NewPIIMiddleware([]string{"password"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)

	ctx := context.Background()
	state := domain.NewWizardState("c", domain.Configuration{})
	state.Values["password"] = "hunter2"
	require.NoError(t, store.Save(ctx, "c", state))

	assert.NotEmpty(t, inner.data["c"].Sealed)
	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Values["password"], "masking runs before sealing")
}
