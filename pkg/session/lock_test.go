package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()
	player := domain.Character{Name: "Inspector", Role: domain.RoleDetective}
	npcs := []domain.Character{{Name: "Graves"}}
	victim := domain.Character{Name: "Lord Edmund"}

	for i := 0; i < 1000; i++ {
		s, err := mgr.Create(ctx, player, npcs, victim)
		require.NoError(t, err)
		require.NoError(t, mgr.Delete(ctx, s.ID()))
	}

	assert.Empty(t, mgr.locks, "locks must be released once unused")
	assert.Empty(t, mgr.sessions)
}
