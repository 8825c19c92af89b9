package scenario

import (
	"fmt"
	"slices"

	"github.com/aretw0/whodunit/pkg/domain"
)

// Edge is a directed connection between two locations.
type Edge struct {
	From string
	To   string
}

// Validate checks the structural consistency of the scenario.
// Returns an *AggregateError listing every failure found.
func (s *Scenario) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if s.Title == "" {
		fail("title", "required")
	}
	if s.Murder.Killer == "" {
		fail("murder.killer", "required")
	}
	if s.Murder.Victim == "" {
		fail("murder.victim", "required")
	}
	if s.Murder.Killer != "" && s.Murder.Killer == s.Murder.Victim {
		fail("murder.killer", "killer and victim are the same character %q", s.Murder.Killer)
	}
	if len(s.Locations) == 0 {
		fail("locations", "at least one location is required")
	}

	ids := make(map[string]bool, len(s.Locations))
	for i, l := range s.Locations {
		if l.ID == "" {
			fail(fmt.Sprintf("locations[%d].id", i), "required")
			continue
		}
		if ids[l.ID] {
			fail(fmt.Sprintf("locations[%d].id", i), "duplicate id %q", l.ID)
		}
		if _, isNPC := s.NPCKnowledge[l.ID]; isNPC {
			fail(fmt.Sprintf("locations[%d].id", i), "%q is also an npc name", l.ID)
		}
		ids[l.ID] = true
	}
	for _, l := range s.Locations {
		for _, to := range l.ConnectedTo {
			if !ids[to] {
				fail("locations."+l.ID+".connected_to", "unknown location %q", to)
			}
		}
	}

	clueIDs := make(map[string]bool, len(s.Clues))
	for i, c := range s.Clues {
		field := fmt.Sprintf("clues[%d]", i)
		if c.ID == "" {
			fail(field+".id", "required")
		} else if clueIDs[c.ID] {
			fail(field+".id", "duplicate id %q", c.ID)
		}
		clueIDs[c.ID] = true

		if !domain.Difficulty(c.Difficulty).Valid() {
			fail(field+".difficulty", "unknown difficulty %q", c.Difficulty)
		}
		if c.Type != "" && !domain.ClueKind(c.Type).Valid() {
			fail(field+".type", "unknown type %q", c.Type)
		}
		if _, isNPC := s.NPCKnowledge[c.FoundAt]; !ids[c.FoundAt] && !isNPC {
			fail(field+".found_at", "%q is neither a location nor an npc", c.FoundAt)
		}
	}

	if _, ok := s.NPCKnowledge[s.Murder.Killer]; s.Murder.Killer != "" && !ok {
		fail("npc_knowledge", "no knowledge for killer %q", s.Murder.Killer)
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// AsymmetricEdges lists directed edges whose reverse edge is missing.
// Adjacency is directed; these are reported for content review, never repaired.
func (s *Scenario) AsymmetricEdges() []Edge {
	var out []Edge
	for _, l := range s.Locations {
		for _, to := range l.ConnectedTo {
			target, ok := s.Location(to)
			if !ok {
				continue
			}
			if !slices.Contains(target.ConnectedTo, l.ID) {
				out = append(out, Edge{From: l.ID, To: to})
			}
		}
	}
	return out
}
