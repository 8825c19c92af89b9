package ports

import (
	"context"

	"github.com/aretw0/whodunit/pkg/domain"
)

// DecisionRequest is everything an agent may know when deciding its action.
// It never carries another character's private knowledge.
type DecisionRequest struct {
	Character    domain.Character
	Knowledge    string
	Location     domain.Location
	CoPresent    []string
	RecentEvents []string
	Adjacent     []domain.Location
	Turn         int
}

// Decision is the oracle's structured answer. Target is a location id for MOVE
// and a character name for TALK.
type Decision struct {
	Action          domain.ActionType `json:"action" mapstructure:"action"`
	Target          string            `json:"target,omitempty" mapstructure:"target"`
	Dialogue        string            `json:"dialogue,omitempty" mapstructure:"dialogue"`
	InternalThought string            `json:"internal_thought,omitempty" mapstructure:"internal_thought"`
}

// Exchange is one entry of a conversation history.
type Exchange struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles.
const (
	RolePlayer = "user"
	RoleNPC    = "assistant"
)

// DialogueRequest asks an NPC to answer the player.
type DialogueRequest struct {
	Character domain.Character
	Knowledge string
	Location  domain.Location
	CoPresent []string
	Player    string
	History   []Exchange
	Message   string
	Turn      int
}

// DecisionOracle decides agent actions and voices NPC dialogue.
// Implementations return errors instead of panicking; retries, if any, are their concern.
type DecisionOracle interface {
	Decide(ctx context.Context, req DecisionRequest) (Decision, error)
	Converse(ctx context.Context, req DialogueRequest) (string, error)
}
