package memory

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/aretw0/whodunit/pkg/ports"
	"github.com/aretw0/whodunit/pkg/scenario"
)

//go:embed scenarios/*.yaml
var scenarios embed.FS

// DefaultScenario returns the built-in scenario, written for the built-in
// character pool.
func DefaultScenario() *scenario.Scenario {
	data, err := scenarios.ReadFile("scenarios/ashcombe.yaml")
	if err != nil {
		panic(fmt.Sprintf("builtin scenario: %v", err))
	}
	sc, err := scenario.Parse(data, scenario.FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("builtin scenario: %v", err))
	}
	return sc
}

// Generator implements ports.ScenarioGenerator with a pre-authored scenario.
type Generator struct {
	scenario *scenario.Scenario
}

// NewGenerator returns a generator that always produces sc.
func NewGenerator(sc *scenario.Scenario) *Generator {
	return &Generator{scenario: sc}
}

// Generate validates the scenario and returns a copy of it.
func (g *Generator) Generate(ctx context.Context, req ports.GenerationRequest) (*scenario.Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.scenario.Validate(); err != nil {
		return nil, err
	}
	return clone(g.scenario)
}

func clone(sc *scenario.Scenario) (*scenario.Scenario, error) {
	data, err := json.Marshal(sc)
	if err != nil {
		return nil, err
	}
	var out scenario.Scenario
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
