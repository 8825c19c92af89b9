package domain

import (
	"fmt"
	"strings"
)

// ActionType tags what a character does in a turn.
type ActionType string

const (
	ActionMove        ActionType = "MOVE"
	ActionTalk        ActionType = "TALK"
	ActionInvestigate ActionType = "INVESTIGATE"
	ActionWait        ActionType = "WAIT"
	ActionAccuse      ActionType = "ACCUSE"
)

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool {
	switch a {
	case ActionMove, ActionTalk, ActionInvestigate, ActionWait, ActionAccuse:
		return true
	default:
		return false
	}
}

// AgentAllowed reports whether an agent may choose this action. Agents never accuse.
func (a ActionType) AgentAllowed() bool {
	switch a {
	case ActionMove, ActionTalk, ActionInvestigate, ActionWait:
		return true
	case ActionAccuse:
		return false
	default:
		return false
	}
}

// ParseActionType converts a case-insensitive name into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	a := ActionType(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidAction, s)
	}
	return a, nil
}

// PlayerAction is what the human player submits for a turn.
type PlayerAction struct {
	Type    ActionType `json:"type"`
	Target  string     `json:"target,omitempty"`
	Message string     `json:"message,omitempty"`
}

// Validate checks the shape of the action. It does not check the world.
func (a PlayerAction) Validate() error {
	switch a.Type {
	case ActionMove, ActionTalk, ActionAccuse:
		if strings.TrimSpace(a.Target) == "" {
			return fmt.Errorf("%w: %s requires a target", ErrInvalidAction, a.Type)
		}
		return nil
	case ActionInvestigate, ActionWait:
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Type)
	}
}

func (a PlayerAction) String() string {
	switch a.Type {
	case ActionMove:
		return "move to " + a.Target
	case ActionTalk:
		return "talk to " + a.Target
	case ActionInvestigate:
		return "investigate"
	case ActionWait:
		return "wait"
	case ActionAccuse:
		return "accuse " + a.Target
	default:
		return string(a.Type)
	}
}

// AgentAction is the resolved decision of one NPC for a turn.
type AgentAction struct {
	Actor    string     `json:"actor"`
	Type     ActionType `json:"type"`
	Target   string     `json:"target,omitempty"`
	Dialogue string     `json:"dialogue,omitempty"`

	// InternalThought is never surfaced to the player.
	InternalThought string `json:"-"`

	// Location is where the action happened; Destination is set for a committed MOVE.
	Location    string `json:"location"`
	Destination string `json:"destination,omitempty"`

	// Degraded marks an action replaced by WAIT after a resolution failure.
	Degraded bool `json:"degraded,omitempty"`
}

// Wait returns the degraded fallback action for actor.
func Wait(actor, location string) AgentAction {
	return AgentAction{Actor: actor, Type: ActionWait, Location: location, Degraded: true}
}
