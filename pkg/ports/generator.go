package ports

import (
	"context"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/scenario"
)

// GenerationRequest describes the cast a scenario must be written for.
type GenerationRequest struct {
	Player         domain.Character
	NPCs           []domain.Character
	Victim         domain.Character
	LocationsCount int
}

// ScenarioGenerator produces the scenario bound to a session.
// Schema violations are reported as errors, never returned as a scenario.
type ScenarioGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*scenario.Scenario, error)
}

// EndingRequest carries the facts of a finished game.
type EndingRequest struct {
	Scenario   *scenario.Scenario
	Player     domain.Character
	Accused    string
	Reasoning  string
	Outcome    domain.Outcome
	TurnsTaken int
	CluesFound int
}

// EndingNarrator writes the closing narration of a game.
type EndingNarrator interface {
	NarrateEnding(ctx context.Context, req EndingRequest) (string, error)
}
