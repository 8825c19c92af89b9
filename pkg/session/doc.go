/*
Package session keeps the registry of live games.

A Manager owns every *game.Session of a process. All mutating work goes
through WithLock, which holds a per-session mutex (and, when configured, a
distributed lock) so that at most one turn is in flight per session, even
across replicas. Locks are reference counted and dropped once unused.

After each successful locked operation the session's player-visible snapshot
can be published to a ports.SnapshotStore.
*/
package session
