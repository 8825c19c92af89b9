package game

import (
	"github.com/aretw0/whodunit/internal/knowledge"
	"github.com/aretw0/whodunit/pkg/domain"
)

// LocationView is the public face of a location.
type LocationView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CharacterView is the public face of an NPC.
type CharacterView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ClueView is a discovered clue as the player sees it.
type ClueView struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Turn        int    `json:"turn"`
}

// ClueProgress summarizes discovery.
type ClueProgress struct {
	Discovered int        `json:"discovered"`
	Total      int        `json:"total"`
	Summary    string     `json:"summary"`
	Found      []ClueView `json:"found"`
}

// Snapshot is the player-visible state of a session. It never carries the
// killer's identity (unless the player is the killer) nor any NPC's private knowledge.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	Phase     domain.Phase   `json:"phase"`
	Outcome   domain.Outcome `json:"outcome,omitempty"`
	Turn      int            `json:"turn"`
	MaxTurns  int            `json:"max_turns"`

	PlayerName string      `json:"player_name"`
	PlayerRole domain.Role `json:"player_role"`

	Title            string `json:"title,omitempty"`
	Setting          string `json:"setting,omitempty"`
	OpeningNarration string `json:"opening_narration,omitempty"`

	CurrentLocation *LocationView   `json:"current_location,omitempty"`
	CharactersHere  []string        `json:"characters_here"`
	Adjacent        []LocationView  `json:"adjacent_locations"`
	AllLocations    []LocationView  `json:"all_locations"`
	NPCs            []CharacterView `json:"npcs"`
	Victim          string          `json:"victim,omitempty"`

	Clues     ClueProgress         `json:"clues"`
	Knowledge knowledge.PlayerView `json:"knowledge"`
	Result    *Result              `json:"result,omitempty"`
}

// Snapshot returns the current player-visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:      s.id,
		Phase:          s.phase,
		Turn:           s.turn,
		MaxTurns:       s.settings.MaxTurns,
		PlayerName:     s.player.Name,
		PlayerRole:     s.player.Role,
		Victim:         s.victim.Name,
		CharactersHere: []string{},
		Adjacent:       []LocationView{},
		AllLocations:   []LocationView{},
		NPCs:           []CharacterView{},
		Knowledge:      knowledge.PlayerView{Role: s.player.Role, KnownAlibis: map[string]string{}},
	}
	for _, npc := range s.npcs {
		snap.NPCs = append(snap.NPCs, CharacterView{Name: npc.Name, Description: npc.Description})
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
		snap.Outcome = r.Outcome
	}
	if s.scenario == nil {
		return snap
	}

	snap.Title = s.scenario.Title
	snap.Setting = s.scenario.Setting
	snap.OpeningNarration = s.scenario.OpeningNarration

	for _, l := range s.world.Locations() {
		snap.AllLocations = append(snap.AllLocations, view(l))
	}
	if here, ok := s.world.LocationOf(s.player.Name); ok {
		loc, _ := s.world.Location(here)
		v := view(loc)
		snap.CurrentLocation = &v
		for _, name := range loc.Occupants {
			if name != s.player.Name {
				snap.CharactersHere = append(snap.CharactersHere, name)
			}
		}
		for _, adj := range s.world.Adjacent(here) {
			snap.Adjacent = append(snap.Adjacent, view(adj))
		}
	}

	snap.Clues = ClueProgress{
		Discovered: s.ledger.DiscoveredCount(),
		Total:      s.ledger.TotalCount(),
		Summary:    s.ledger.Progress(),
		Found:      []ClueView{},
	}
	for _, c := range s.ledger.Discovered() {
		snap.Clues.Found = append(snap.Clues.Found, ClueView{ID: c.ID, Description: c.Description, Turn: c.DiscoveredTurn})
	}
	snap.Knowledge = s.knowledge.PlayerVisibleInfo(s.player.Role)
	return snap
}

func view(l domain.Location) LocationView {
	return LocationView{ID: l.ID, Name: l.Name, Description: l.Description}
}
