package ports

import "context"

// SnapshotStore keeps the latest player-visible snapshot of each session,
// encoded as JSON, so it can be read without holding the session.
type SnapshotStore interface {
	// Save replaces the snapshot stored for sessionID.
	Save(ctx context.Context, sessionID string, snapshot []byte) error

	// Load returns the stored snapshot.
	// Returns domain.ErrSessionNotFound if nothing is stored.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes the snapshot. Deleting a missing one is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids with a stored snapshot.
	List(ctx context.Context) ([]string, error)
}
