// Package persistence wraps snapshot stores with cross-cutting behaviour.
// Published snapshots are a player's running view of a game, so stores
// shared outside the process should be wrapped with Encrypt.
package persistence

import "github.com/aretw0/whodunit/pkg/ports"

// Middleware decorates a snapshot store.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain applies mws to store; the first middleware is the outermost.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
