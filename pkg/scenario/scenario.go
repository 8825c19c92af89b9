package scenario

import (
	"strings"

	"github.com/aretw0/whodunit/pkg/domain"
)

// Murder holds the ground truth of the crime.
type Murder struct {
	Victim          string `json:"victim" yaml:"victim"`
	Killer          string `json:"killer" yaml:"killer"`
	Method          string `json:"method" yaml:"method"`
	Motive          string `json:"motive" yaml:"motive"`
	TimeOfDeath     string `json:"time_of_death" yaml:"time_of_death"`
	LocationOfDeath string `json:"location_of_death" yaml:"location_of_death"`
}

// LocationDef describes a node of the location graph.
type LocationDef struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	ConnectedTo []string `json:"connected_to" yaml:"connected_to"`
	CluesHere   []string `json:"clues_here,omitempty" yaml:"clues_here,omitempty"`
}

// ClueDef describes a clue before play starts.
type ClueDef struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	PointsTo    string `json:"points_to" yaml:"points_to"`
	Difficulty  string `json:"difficulty" yaml:"difficulty"`
	FoundAt     string `json:"found_at" yaml:"found_at"`
	Type        string `json:"type" yaml:"type"`
}

// Knowledge is the private payload of one NPC.
type Knowledge struct {
	Alibi           string   `json:"alibi" yaml:"alibi"`
	TrueWhereabouts string   `json:"true_whereabouts" yaml:"true_whereabouts"`
	KnownClues      []string `json:"known_clues,omitempty" yaml:"known_clues,omitempty"`
	Secrets         []string `json:"secrets,omitempty" yaml:"secrets,omitempty"`
	Attitude        string   `json:"attitude,omitempty" yaml:"attitude,omitempty"`
	Suspicions      string   `json:"suspicions,omitempty" yaml:"suspicions,omitempty"`
}

// RedHerring is a misleading thread of the story.
type RedHerring struct {
	Description string `json:"description" yaml:"description"`
	Implicates  string `json:"implicates" yaml:"implicates"`
	Truth       string `json:"truth" yaml:"truth"`
}

// Scenario is the generated content of one game.
type Scenario struct {
	Title            string               `json:"title" yaml:"title"`
	Setting          string               `json:"setting" yaml:"setting"`
	TimePeriod       string               `json:"time_period" yaml:"time_period"`
	Backstory        string               `json:"backstory" yaml:"backstory"`
	Murder           Murder               `json:"murder" yaml:"murder"`
	Locations        []LocationDef        `json:"locations" yaml:"locations"`
	Clues            []ClueDef            `json:"clues" yaml:"clues"`
	NPCKnowledge     map[string]Knowledge `json:"npc_knowledge" yaml:"npc_knowledge"`
	RedHerrings      []RedHerring         `json:"red_herrings,omitempty" yaml:"red_herrings,omitempty"`
	OpeningNarration string               `json:"opening_narration" yaml:"opening_narration"`
}

// Normalize lower-cases clue difficulties and types and trims ids.
func (s *Scenario) Normalize() {
	for i := range s.Locations {
		s.Locations[i].ID = strings.TrimSpace(s.Locations[i].ID)
	}
	for i := range s.Clues {
		c := &s.Clues[i]
		c.ID = strings.TrimSpace(c.ID)
		c.Difficulty = strings.ToLower(strings.TrimSpace(c.Difficulty))
		c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	}
}

// DomainLocations converts the location definitions, preserving order.
func (s *Scenario) DomainLocations() []domain.Location {
	out := make([]domain.Location, 0, len(s.Locations))
	for _, l := range s.Locations {
		out = append(out, domain.Location{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			ConnectedTo: append([]string(nil), l.ConnectedTo...),
		})
	}
	return out
}

// DomainClues converts the clue definitions into undiscovered clues.
// Unknown difficulties fall back to hard so they are never auto-revealed.
func (s *Scenario) DomainClues() []domain.Clue {
	out := make([]domain.Clue, 0, len(s.Clues))
	for _, c := range s.Clues {
		d := domain.Difficulty(c.Difficulty)
		if !d.Valid() {
			d = domain.DifficultyHard
		}
		bound := domain.BoundToNPC
		if _, ok := s.Location(c.FoundAt); ok {
			bound = domain.BoundToLocation
		}
		out = append(out, domain.Clue{
			ID:          c.ID,
			Description: c.Description,
			PointsTo:    c.PointsTo,
			Difficulty:  d,
			Kind:        domain.ClueKind(c.Type),
			FoundAt:     c.FoundAt,
			BoundTo:     bound,
		})
	}
	return out
}

// Location returns the definition with the given id.
func (s *Scenario) Location(id string) (LocationDef, bool) {
	for _, l := range s.Locations {
		if l.ID == id {
			return l, true
		}
	}
	return LocationDef{}, false
}
