package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/game"
	"github.com/aretw0/whodunit/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder can block a session.
// Lockers keep a live holder's lock refreshed, so a turn may run longer.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring one operation at a time per session.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks

	sessionsMu sync.RWMutex
	sessions   map[string]*game.Session

	defaults []game.Option
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	store    ports.SnapshotStore
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithSnapshotStore publishes snapshots after each locked operation.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithSessionOptions sets options applied to every created session,
// before the per-call ones.
func WithSessionOptions(opts ...game.Option) Option {
	return func(m *Manager) {
		m.defaults = append(m.defaults, opts...)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*game.Session),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, and call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create starts a new session in SETUP under a fresh id.
func (m *Manager) Create(ctx context.Context, player domain.Character, npcs []domain.Character, victim domain.Character, opts ...game.Option) (*game.Session, error) {
	id := uuid.NewString()
	all := make([]game.Option, 0, len(m.defaults)+len(opts)+1)
	all = append(all, m.defaults...)
	all = append(all, opts...)
	all = append(all, game.WithID(id))

	s, err := game.NewSession(player, npcs, victim, all...)
	if err != nil {
		return nil, err
	}

	m.sessionsMu.Lock()
	m.sessions[id] = s
	m.sessionsMu.Unlock()

	m.logger.InfoContext(ctx, "session created", "session_id", id, "player", player.Name, "role", player.Role)
	m.publish(ctx, s)
	return s, nil
}

// Get returns the live session.
func (m *Manager) Get(sessionID string) (*game.Session, error) {
	m.sessionsMu.RLock()
	defer m.sessionsMu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// List returns the ids of live sessions, sorted.
func (m *Manager) List() []string {
	m.sessionsMu.RLock()
	defer m.sessionsMu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Delete closes the session and forgets it.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.withEntry(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.Get(sessionID)
		if err != nil {
			return err
		}
		s.Close(ctx)

		m.sessionsMu.Lock()
		delete(m.sessions, sessionID)
		m.sessionsMu.Unlock()

		if m.store != nil {
			if err := m.store.Delete(ctx, sessionID); err != nil {
				m.logger.WarnContext(ctx, "failed to delete published snapshot", "session_id", sessionID, "err", err)
			}
		}
		m.logger.InfoContext(ctx, "session deleted", "session_id", sessionID)
		return nil
	})
}

// WithLock runs fn while holding the session's lock, then publishes the
// session's snapshot. A failed fn may still have moved the session (e.g.
// back to SETUP), so the snapshot is published either way.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, *game.Session) error) error {
	return m.withEntry(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.Get(sessionID)
		if err != nil {
			return err
		}
		err = fn(ctx, s)
		m.publish(ctx, s)
		return err
	})
}

// Published returns the last published snapshot. Without a store, the live
// session is encoded instead.
func (m *Manager) Published(ctx context.Context, sessionID string) ([]byte, error) {
	if m.store != nil {
		return m.store.Load(ctx, sessionID)
	}
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s.Snapshot())
}

func (m *Manager) withEntry(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.WarnContext(ctx, "failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) publish(ctx context.Context, s *game.Session) {
	if m.store == nil {
		return
	}
	data, err := json.Marshal(s.Snapshot())
	if err == nil {
		err = m.store.Save(ctx, s.ID(), data)
	}
	if err != nil {
		m.logger.WarnContext(ctx, "failed to publish snapshot", "session_id", s.ID(), "err", err)
	}
}
