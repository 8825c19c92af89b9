package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/whodunit/pkg/domain"
)

// DefaultSnapshotTTL is how long a published snapshot survives without updates.
const DefaultSnapshotTTL = 24 * time.Hour

// SnapshotStore implements ports.SnapshotStore on Redis.
type SnapshotStore struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
}

// StoreOption configures a SnapshotStore.
type StoreOption func(*SnapshotStore)

// WithTTL sets the snapshot expiry. Zero keeps snapshots forever.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *SnapshotStore) {
		s.ttl = ttl
	}
}

// NewSnapshotStore stores snapshots as <prefix>snapshot:<session id>.
func NewSnapshotStore(client backend.UniversalClient, prefix string, opts ...StoreOption) *SnapshotStore {
	s := &SnapshotStore{
		client: client,
		prefix: prefix,
		ttl:    DefaultSnapshotTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SnapshotStore) key(sessionID string) string {
	return s.prefix + "snapshot:" + sessionID
}

// Save replaces the snapshot and refreshes its TTL.
func (s *SnapshotStore) Save(ctx context.Context, sessionID string, snapshot []byte) error {
	if err := s.client.Set(ctx, s.key(sessionID), snapshot, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot or domain.ErrSessionNotFound.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis load snapshot: %w", err)
	}
	return data, nil
}

// Delete removes the snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete snapshot: %w", err)
	}
	return nil
}

// List scans for stored snapshots.
func (s *SnapshotStore) List(ctx context.Context) ([]string, error) {
	prefix := s.key("")
	var ids []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan snapshots: %w", err)
	}
	return ids, nil
}
