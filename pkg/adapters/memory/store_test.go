package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/adapters/memory"
	"github.com/aretw0/whodunit/pkg/ports"
)

func TestSnapshotStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, memory.NewSnapshotStore())
}

func TestSnapshotStore_Isolation(t *testing.T) {
	store := memory.NewSnapshotStore()
	ctx := context.Background()

	data := []byte(`{"turn":1}`)
	require.NoError(t, store.Save(ctx, "s1", data))
	data[2] = 'X'

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, `{"turn":1}`, string(loaded))

	loaded[2] = 'Y'
	again, _ := store.Load(ctx, "s1")
	assert.Equal(t, `{"turn":1}`, string(again))
}
