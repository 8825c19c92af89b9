// Package world implements the location graph: directed adjacency, placement
// and occupant tracking, and the per-location grouping used to fan out a turn.
package world
