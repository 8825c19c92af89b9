package persistence_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/adapters/memory"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/persistence"
	"github.com/aretw0/whodunit/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, persistence.KeySize)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.SnapshotStore, cfg persistence.EncryptionConfig) ports.SnapshotStore {
	t.Helper()
	mw, err := persistence.Encrypt(cfg)
	require.NoError(t, err)
	return persistence.Chain(next, mw)
}

func TestEncrypt_Roundtrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewSnapshotStore()
	store := encrypted(t, inner, persistence.EncryptionConfig{ActiveKey: generateKey(t)})

	snapshot := []byte(`{"killer":"Dr. Evelyn Hart"}`)
	require.NoError(t, store.Save(ctx, "s1", snapshot))

	raw, err := inner.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Evelyn")

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncrypt_KeyRotation(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewSnapshotStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := encrypted(t, inner, persistence.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, "s1", []byte("old")))

	newStore := encrypted(t, inner, persistence.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	got, err := newStore.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	require.NoError(t, newStore.Save(ctx, "s1", []byte("new")))
	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "old key alone cannot read new snapshots")
}

func TestEncrypt_RejectsPlainSnapshots(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewSnapshotStore()
	require.NoError(t, inner.Save(ctx, "s1", []byte("{}")))

	store := encrypted(t, inner, persistence.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, persistence.ErrNotEncrypted)
}

func TestEncrypt_InvalidKeys(t *testing.T) {
	_, err := persistence.Encrypt(persistence.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = persistence.Encrypt(persistence.EncryptionConfig{ActiveKey: generateKey(t), FallbackKeys: [][]byte{{1}}})
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := persistence.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = persistence.ParseKey("not base64!")
	assert.Error(t, err)
	_, err = persistence.ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestEncrypt_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, encrypted(t, memory.NewSnapshotStore(), persistence.EncryptionConfig{ActiveKey: generateKey(t)}))
}
