package scenario_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/scenario"
)

func TestLoad_YAML(t *testing.T) {
	sc, err := scenario.Load("testdata/manor.yaml")
	require.NoError(t, err)

	assert.Equal(t, "A Quiet Evening", sc.Title)
	assert.Equal(t, "Dr. Hart", sc.Murder.Killer)
	require.Len(t, sc.Locations, 3)
	assert.Equal(t, []string{"study", "hall"}, sc.Locations[0].ConnectedTo)
	assert.Contains(t, sc.NPCKnowledge, "Miss Finch")
	assert.NoError(t, sc.Validate())
}

func TestParse_JSONRoundTripsThroughYAMLShape(t *testing.T) {
	sc, err := scenario.Load("testdata/manor.yaml")
	require.NoError(t, err)

	data, err := json.Marshal(sc)
	require.NoError(t, err)

	parsed, err := scenario.Parse(data, scenario.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, sc, parsed)
}

func TestDecode_CoercesLooseModelOutput(t *testing.T) {
	raw := map[string]any{
		"title": "Loose",
		"murder": map[string]any{
			"victim":        "A",
			"killer":        "B",
			"time_of_death": 10,
		},
		"locations": []any{
			map[string]any{"id": "hall", "name": "Hall", "connected_to": []any{}},
		},
		"clues": []any{
			map[string]any{"id": " c1 ", "difficulty": "EASY", "found_at": "hall", "type": "Physical"},
		},
		"npc_knowledge": map[string]any{
			"B": map[string]any{"alibi": "home", "secrets": []any{"one"}},
		},
	}

	sc, err := scenario.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "10", sc.Murder.TimeOfDeath)
	assert.Equal(t, []string{"one"}, sc.NPCKnowledge["B"].Secrets)
	assert.Equal(t, scenario.ClueDef{ID: "c1", Difficulty: "easy", FoundAt: "hall", Type: "physical"}, sc.Clues[0])
	assert.NoError(t, sc.Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	sc := &scenario.Scenario{
		Murder: scenario.Murder{Victim: "A", Killer: "A"},
		Locations: []scenario.LocationDef{
			{ID: "hall", ConnectedTo: []string{"nowhere"}},
			{ID: "hall"},
		},
		Clues: []scenario.ClueDef{
			{ID: "c1", Difficulty: "legendary", FoundAt: "moon", Type: "smell"},
		},
	}

	err := sc.Validate()
	require.Error(t, err)

	errs := scenario.ValidationErrors(err)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		var ve *scenario.ValidationError
		require.ErrorAs(t, e, &ve)
		fields = append(fields, ve.Field)
	}

	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "murder.killer")
	assert.Contains(t, fields, "locations[1].id")
	assert.Contains(t, fields, "locations.hall.connected_to")
	assert.Contains(t, fields, "clues[0].difficulty")
	assert.Contains(t, fields, "clues[0].type")
	assert.Contains(t, fields, "clues[0].found_at")
}

func TestAsymmetricEdges(t *testing.T) {
	sc, err := scenario.Load("testdata/manor.yaml")
	require.NoError(t, err)

	edges := sc.AsymmetricEdges()
	assert.Equal(t, []scenario.Edge{{From: "hall", To: "study"}}, edges)

	// Edges are reported, not repaired.
	study, _ := sc.Location("study")
	assert.Equal(t, []string{"library"}, study.ConnectedTo)
}

func TestDomainClues_UnknownDifficultyIsHard(t *testing.T) {
	sc := &scenario.Scenario{Clues: []scenario.ClueDef{
		{ID: "a", Difficulty: "easy"},
		{ID: "b", Difficulty: "???"},
	}}

	clues := sc.DomainClues()
	require.Len(t, clues, 2)
	assert.Equal(t, domain.DifficultyEasy, clues[0].Difficulty)
	assert.Equal(t, domain.DifficultyHard, clues[1].Difficulty)
	assert.False(t, clues[0].Discovered)
}

func TestValidate_LocationSharesNPCName(t *testing.T) {
	sc := &scenario.Scenario{
		Title:     "Shared Names",
		Murder:    scenario.Murder{Victim: "Lord", Killer: "Hart"},
		Locations: []scenario.LocationDef{{ID: "hall"}, {ID: "Graves"}},
		Clues: []scenario.ClueDef{
			{ID: "gossip", Difficulty: "medium", FoundAt: "Graves"},
		},
		NPCKnowledge: map[string]scenario.Knowledge{"Hart": {}, "Graves": {}},
	}

	err := sc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Graves" is also an npc name`)
}

func TestDomainClues_BindingKind(t *testing.T) {
	sc := &scenario.Scenario{
		Locations: []scenario.LocationDef{{ID: "study"}},
		Clues: []scenario.ClueDef{
			{ID: "glass", Difficulty: "easy", FoundAt: "study"},
			{ID: "argument", Difficulty: "medium", FoundAt: "Miss Finch"},
		},
	}

	got := sc.DomainClues()
	require.Len(t, got, 2)
	assert.Equal(t, domain.BoundToLocation, got[0].BoundTo)
	assert.Equal(t, domain.BoundToNPC, got[1].BoundTo)
}
