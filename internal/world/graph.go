package world

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/whodunit/pkg/domain"
)

// Group is the ordered set of characters sharing a location.
type Group struct {
	Location string
	Members  []string
}

// Graph tracks locations, their directed edges and who stands where.
// Safe for concurrent use.
type Graph struct {
	mu        sync.RWMutex
	order     []string
	locations map[string]*domain.Location
	positions map[string]string
}

// New builds a graph from location definitions. Occupants in the input are ignored.
func New(locations []domain.Location) *Graph {
	g := &Graph{
		locations: make(map[string]*domain.Location, len(locations)),
		positions: make(map[string]string),
	}
	for _, l := range locations {
		if _, dup := g.locations[l.ID]; dup {
			continue
		}
		loc := l.Clone()
		loc.Occupants = nil
		g.locations[l.ID] = &loc
		g.order = append(g.order, l.ID)
	}
	return g
}

// Place puts character at location, removing it from its previous location first.
// Placing a character where it already stands is a no-op.
func (g *Graph) Place(character, location string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.place(character, location)
}

func (g *Graph) place(character, location string) error {
	target, ok := g.locations[location]
	if !ok {
		return fmt.Errorf("location %q: %w", location, domain.ErrNotFound)
	}
	if current, placed := g.positions[character]; placed {
		if current == location {
			return nil
		}
		if prev, ok := g.locations[current]; ok {
			prev.Occupants = slices.DeleteFunc(prev.Occupants, func(n string) bool { return n == character })
		}
	}
	target.Occupants = append(target.Occupants, character)
	g.positions[character] = location
	return nil
}

// Move relocates character to target if target is adjacent to its current location.
// An unplaced character is placed directly. Unknown or non-adjacent targets fail without mutation.
func (g *Graph) Move(character, target string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.locations[target]; !ok {
		return false
	}
	current, placed := g.positions[character]
	if !placed {
		return g.place(character, target) == nil
	}
	from, ok := g.locations[current]
	if !ok || !from.ConnectsTo(target) {
		return false
	}
	return g.place(character, target) == nil
}

// Remove takes character off the graph entirely.
func (g *Graph) Remove(character string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, placed := g.positions[character]
	if !placed {
		return
	}
	if loc, ok := g.locations[current]; ok {
		loc.Occupants = slices.DeleteFunc(loc.Occupants, func(n string) bool { return n == character })
	}
	delete(g.positions, character)
}

// LocationOf returns the id of the location character occupies.
func (g *Graph) LocationOf(character string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.positions[character]
	return id, ok
}

// Occupants returns the characters at location in arrival order.
func (g *Graph) Occupants(location string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.locations[location]
	if !ok {
		return nil
	}
	return slices.Clone(loc.Occupants)
}

// Adjacent returns the known locations reachable from location.
func (g *Graph) Adjacent(location string) []domain.Location {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.locations[location]
	if !ok {
		return nil
	}
	var out []domain.Location
	for _, id := range loc.ConnectedTo {
		if next, ok := g.locations[id]; ok {
			out = append(out, next.Clone())
		}
	}
	return out
}

// Location returns a copy of the location with the given id.
func (g *Graph) Location(id string) (domain.Location, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.locations[id]
	if !ok {
		return domain.Location{}, false
	}
	return loc.Clone(), true
}

// Locations returns copies of every location in definition order.
func (g *Graph) Locations() []domain.Location {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.Location, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.locations[id].Clone())
	}
	return out
}

// First returns the first defined location.
func (g *Graph) First() (domain.Location, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.order) == 0 {
		return domain.Location{}, false
	}
	return g.locations[g.order[0]].Clone(), true
}

// Lookup resolves ref to a location id, matching the id exactly or the id or
// name case-insensitively.
func (g *Graph) Lookup(ref string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.locations[ref]; ok {
		return ref, true
	}
	ref = strings.TrimSpace(ref)
	for _, id := range g.order {
		loc := g.locations[id]
		if strings.EqualFold(loc.ID, ref) || strings.EqualFold(loc.Name, ref) {
			return id, true
		}
	}
	return "", false
}

// Match is Lookup with a case-insensitive substring fallback on id and name.
func (g *Graph) Match(ref string) (string, bool) {
	if id, ok := g.Lookup(ref); ok {
		return id, true
	}
	needle := strings.ToLower(strings.TrimSpace(ref))
	if needle == "" {
		return "", false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, id := range g.order {
		loc := g.locations[id]
		if strings.Contains(strings.ToLower(loc.ID), needle) || strings.Contains(strings.ToLower(loc.Name), needle) {
			return id, true
		}
	}
	return "", false
}

// GroupByLocation partitions every placed character except the excluded ones by
// location. Groups follow location definition order; members follow arrival order.
func (g *Graph) GroupByLocation(exclude ...string) []Group {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var groups []Group
	for _, id := range g.order {
		var members []string
		for _, name := range g.locations[id].Occupants {
			if !slices.Contains(exclude, name) {
				members = append(members, name)
			}
		}
		if len(members) > 0 {
			groups = append(groups, Group{Location: id, Members: members})
		}
	}
	return groups
}

// RandomLocation picks any location id.
func (g *Graph) RandomLocation(rng *rand.Rand) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.order) == 0 {
		return "", false
	}
	return g.order[rng.IntN(len(g.order))], true
}

// RandomAdjacent picks a known location reachable from location.
func (g *Graph) RandomAdjacent(location string, rng *rand.Rand) (string, bool) {
	adj := g.Adjacent(location)
	if len(adj) == 0 {
		return "", false
	}
	return adj[rng.IntN(len(adj))].ID, true
}

// Summary renders the map for prompts and debugging.
func (g *Graph) Summary() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var sb strings.Builder
	for _, id := range g.order {
		loc := g.locations[id]
		fmt.Fprintf(&sb, "- %s (%s)", loc.Name, loc.ID)
		if len(loc.ConnectedTo) > 0 {
			fmt.Fprintf(&sb, " -> %s", strings.Join(loc.ConnectedTo, ", "))
		}
		if len(loc.Occupants) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(loc.Occupants, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
