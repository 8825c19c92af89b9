package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/whodunit/pkg/domain"
)

// SnapshotStore implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type SnapshotStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]byte),
	}
}

// Save stores a copy of snapshot.
func (s *SnapshotStore) Save(ctx context.Context, sessionID string, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = slices.Clone(snapshot)
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return slices.Clone(data), nil
}

// Delete removes the snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored ids.
func (s *SnapshotStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
