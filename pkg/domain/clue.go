package domain

// Difficulty gates how a clue may be revealed.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// ClueKind is the narrative category of a clue.
type ClueKind string

const (
	ClueKindPhysical    ClueKind = "physical"
	ClueKindTestimony   ClueKind = "testimony"
	ClueKindDocument    ClueKind = "document"
	ClueKindObservation ClueKind = "observation"
)

// Valid reports whether k is a known kind.
func (k ClueKind) Valid() bool {
	switch k {
	case ClueKindPhysical, ClueKindTestimony, ClueKindDocument, ClueKindObservation:
		return true
	default:
		return false
	}
}

// ClueBinding says what a clue's FoundAt refers to.
type ClueBinding string

const (
	BoundToLocation ClueBinding = "location"
	BoundToNPC      ClueBinding = "npc"
)

// Clue is a piece of evidence. FoundAt is a location id or an NPC name,
// as told by BoundTo.
type Clue struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	PointsTo    string      `json:"points_to,omitempty"`
	Difficulty  Difficulty  `json:"difficulty"`
	Kind        ClueKind    `json:"type,omitempty"`
	FoundAt     string      `json:"found_at"`
	BoundTo     ClueBinding `json:"bound_to"`

	Discovered     bool   `json:"discovered"`
	DiscoveredBy   string `json:"discovered_by,omitempty"`
	DiscoveredTurn int    `json:"discovered_turn,omitempty"`
}
