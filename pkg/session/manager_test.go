package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/adapters/memory"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/game"
	"github.com/aretw0/whodunit/pkg/ports"
	"github.com/aretw0/whodunit/pkg/session"
)

var (
	player = domain.Character{Name: "Inspector", Role: domain.RoleDetective}
	npcs   = []domain.Character{{Name: "Graves"}, {Name: "Miss Finch"}}
	victim = domain.Character{Name: "Lord Edmund"}
)

type fakeLocker struct {
	mu    sync.Mutex
	keys  []string
	ttls  []time.Duration
	freed int
	err   error
}

func (l *fakeLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.freed++
		return nil
	}, nil
}

type brokenStore struct{ ports.SnapshotStore }

func (brokenStore) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func TestManager_CreateAndGet(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	s, err := mgr.Create(ctx, player, npcs, victim)
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID())
	assert.NoError(t, err, "ids are uuids")
	assert.Equal(t, domain.PhaseSetup, s.Phase())

	got, err := mgr.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, []string{s.ID()}, mgr.List())

	_, err = mgr.Get("nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	err = mgr.WithLock(ctx, "nope", func(context.Context, *game.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, mgr.Delete(ctx, "nope"), domain.ErrSessionNotFound)

	_, err = mgr.Create(ctx, domain.Character{Name: "W", Role: domain.RoleWitness}, npcs, victim)
	assert.Error(t, err)
	assert.Len(t, mgr.List(), 1)
}

func TestManager_Delete(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	s, err := mgr.Create(ctx, player, npcs, victim)
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, s.ID()))

	assert.Equal(t, domain.PhaseFinished, s.Phase())
	_, err = mgr.Get(s.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_WithLockSerializes(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()
	s, err := mgr.Create(ctx, player, npcs, victim)
	require.NoError(t, err)

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, s.ID(), func(context.Context, *game.Session) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight)
}

func TestManager_DistributedLock(t *testing.T) {
	ctx := context.Background()
	locker := &fakeLocker{}
	mgr := session.NewManager(session.WithLocker(locker))

	s, err := mgr.Create(ctx, player, npcs, victim)
	require.NoError(t, err)
	require.NoError(t, mgr.WithLock(ctx, s.ID(), func(context.Context, *game.Session) error { return nil }))

	assert.Equal(t, []string{s.ID()}, locker.keys)
	assert.Equal(t, []time.Duration{session.DefaultLockTTL}, locker.ttls)
	assert.Equal(t, 1, locker.freed)

	locker.err = errors.New("redis down")
	called := false
	err = mgr.WithLock(ctx, s.ID(), func(context.Context, *game.Session) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "redis down")
	assert.False(t, called)
}

func TestManager_PublishesSnapshots(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	mgr := session.NewManager(session.WithSnapshotStore(store))

	s, err := mgr.Create(ctx, player, npcs, victim)
	require.NoError(t, err)

	require.NoError(t, mgr.WithLock(ctx, s.ID(), func(ctx context.Context, s *game.Session) error {
		return s.BeginScenarioGeneration(ctx)
	}))

	data, err := mgr.Published(ctx, s.ID())
	require.NoError(t, err)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, s.ID(), snap.SessionID)
	assert.Equal(t, domain.PhaseScenarioGen, snap.Phase)

	failed := mgr.WithLock(ctx, s.ID(), func(ctx context.Context, s *game.Session) error {
		return s.BeginScenarioGeneration(ctx)
	})
	assert.ErrorIs(t, failed, domain.ErrInvalidPhase)

	require.NoError(t, mgr.Delete(ctx, s.ID()))
	_, err = mgr.Published(ctx, s.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_PublishesAfterFailedOperation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	mgr := session.NewManager(session.WithSnapshotStore(store))

	s, err := mgr.Create(ctx, player, npcs, victim)
	require.NoError(t, err)

	boom := errors.New("generator offline")
	err = mgr.WithLock(ctx, s.ID(), func(ctx context.Context, s *game.Session) error {
		if err := s.BeginScenarioGeneration(ctx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err := mgr.Published(ctx, s.ID())
	require.NoError(t, err)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, domain.PhaseScenarioGen, snap.Phase, "published view follows the live session")
}

func TestManager_PublishedWithoutStore(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager()
	s, err := mgr.Create(ctx, player, npcs, victim)
	require.NoError(t, err)

	data, err := mgr.Published(ctx, s.ID())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"phase":"SETUP"`)
}

func TestManager_StoreFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(session.WithSnapshotStore(brokenStore{memory.NewSnapshotStore()}))

	s, err := mgr.Create(ctx, player, npcs, victim)
	require.NoError(t, err)
	assert.NoError(t, mgr.WithLock(ctx, s.ID(), func(ctx context.Context, s *game.Session) error {
		return s.BeginScenarioGeneration(ctx)
	}))
}

func TestManager_SessionOptions(t *testing.T) {
	settings := game.DefaultSettings()
	settings.MaxTurns = 5
	mgr := session.NewManager(session.WithSessionOptions(game.WithSettings(settings)))

	s, err := mgr.Create(context.Background(), player, npcs, victim)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Snapshot().MaxTurns)
}
