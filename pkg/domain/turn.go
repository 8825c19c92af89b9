package domain

// AmbientHint is what the player perceives of activity at other locations.
const AmbientHint = "You hear faint sounds from elsewhere in the building; the others are active too."

// TurnEvent is something that happened during a turn, tagged with its visibility.
type TurnEvent struct {
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	Involved        []string `json:"involved,omitempty"`
	VisibleToPlayer bool     `json:"visible_to_player"`
}

// TurnResult is the compiled outcome of one turn.
// Events[i] is the event produced by AgentActions[i].
type TurnResult struct {
	Turn            int           `json:"turn"`
	PlayerAction    PlayerAction  `json:"player_action"`
	PlayerResponse  string        `json:"player_response"`
	AgentActions    []AgentAction `json:"agent_actions"`
	Events          []TurnEvent   `json:"events"`
	CluesDiscovered []string      `json:"clues_discovered,omitempty"`
	Summary         string        `json:"summary"`

	// Ambient is set only on redacted copies, when something happened out of sight.
	Ambient string `json:"ambient,omitempty"`
}

// VisibleEvents returns the events that happened where the player could see them.
func (r *TurnResult) VisibleEvents() []TurnEvent {
	var out []TurnEvent
	for _, e := range r.Events {
		if e.VisibleToPlayer {
			out = append(out, e)
		}
	}
	return out
}

// HasHiddenActivity reports whether any event happened out of the player's sight.
func (r *TurnResult) HasHiddenActivity() bool {
	for _, e := range r.Events {
		if !e.VisibleToPlayer {
			return true
		}
	}
	return false
}

// ForPlayer returns a copy holding only what the player is allowed to see.
func (r *TurnResult) ForPlayer() *TurnResult {
	out := &TurnResult{
		Turn:            r.Turn,
		PlayerAction:    r.PlayerAction,
		PlayerResponse:  r.PlayerResponse,
		AgentActions:    []AgentAction{},
		Events:          []TurnEvent{},
		CluesDiscovered: append([]string(nil), r.CluesDiscovered...),
		Summary:         r.Summary,
	}
	for i, e := range r.Events {
		if !e.VisibleToPlayer {
			out.Ambient = AmbientHint
			continue
		}
		out.Events = append(out.Events, e)
		if i < len(r.AgentActions) {
			a := r.AgentActions[i]
			a.InternalThought = ""
			out.AgentActions = append(out.AgentActions, a)
		}
	}
	return out
}
