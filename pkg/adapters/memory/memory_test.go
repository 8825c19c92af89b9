package memory_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/adapters/memory"
	"github.com/aretw0/whodunit/pkg/characters"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
	"github.com/aretw0/whodunit/pkg/scenario"
)

func TestDefaultScenario(t *testing.T) {
	sc := memory.DefaultScenario()
	require.NoError(t, sc.Validate())
	assert.Equal(t, "Death at Ashcombe Manor", sc.Title)
	assert.Empty(t, sc.AsymmetricEdges())
	assert.Len(t, sc.Locations, 6)

	npcs, victim, err := characters.CastFor(sc, characters.Default())
	require.NoError(t, err)
	assert.Equal(t, "Lord Edmund Ashcombe", victim.Name)
	assert.Len(t, npcs, 7)
	for _, n := range npcs {
		assert.NotNil(t, n.Profile, "%s is in the built-in pool", n.Name)
	}
}

func TestGenerator(t *testing.T) {
	ctx := context.Background()
	gen := memory.NewGenerator(memory.DefaultScenario())

	a, err := gen.Generate(ctx, ports.GenerationRequest{})
	require.NoError(t, err)
	a.Title = "changed"

	b, err := gen.Generate(ctx, ports.GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Death at Ashcombe Manor", b.Title, "each call returns a fresh copy")

	_, err = memory.NewGenerator(&scenario.Scenario{}).Generate(ctx, ports.GenerationRequest{})
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = gen.Generate(cancelled, ports.GenerationRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOracle_Defaults(t *testing.T) {
	ctx := context.Background()
	var o memory.Oracle

	d, err := o.Decide(ctx, ports.DecisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionWait, d.Action)

	req := ports.DialogueRequest{Knowledge: "You are Graves.\nYour alibi: Seeing to the fires.\n"}
	reply, err := o.Converse(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Seeing to the fires.", reply)

	req.History = []ports.Exchange{{Role: ports.RolePlayer, Content: "Hello"}}
	reply, err = o.Converse(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "As I said before: Seeing to the fires.", reply)

	reply, err = o.Converse(ctx, ports.DialogueRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}

func TestOracle_Funcs(t *testing.T) {
	boom := errors.New("boom")
	o := memory.Oracle{
		DecideFunc: func(context.Context, ports.DecisionRequest) (ports.Decision, error) {
			return ports.Decision{}, boom
		},
		ConverseFunc: func(_ context.Context, req ports.DialogueRequest) (string, error) {
			return "echo: " + req.Message, nil
		},
	}
	_, err := o.Decide(context.Background(), ports.DecisionRequest{})
	assert.ErrorIs(t, err, boom)

	reply, err := o.Converse(context.Background(), ports.DialogueRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", reply)
}

func TestWander(t *testing.T) {
	ctx := context.Background()
	always := memory.Wander(rand.New(rand.NewPCG(1, 2)), 1)
	req := ports.DecisionRequest{Adjacent: []domain.Location{{ID: "hall"}, {ID: "kitchen"}}}

	for i := 0; i < 20; i++ {
		d, err := always(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, domain.ActionMove, d.Action)
		assert.Contains(t, []string{"hall", "kitchen"}, d.Target)
	}

	d, err := always(ctx, ports.DecisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionWait, d.Action, "nowhere to go")

	never := memory.Wander(rand.New(rand.NewPCG(1, 2)), 0)
	d, err = never(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionWait, d.Action)
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	j := memory.NewJournal()
	hooks := j.Hooks()

	hooks.OnTurnEnd(ctx, &domain.TurnEndEvent{Result: &domain.TurnResult{Events: []domain.TurnEvent{
		{Description: `Graves: "The brandy was poured at ten."`, Involved: []string{"Graves"}},
		{Description: "Mrs. Pike waits.", Involved: []string{"Mrs. Pike"}},
	}}})
	j.Remember("Graves", "The doctor asked about the study door.")
	j.Remember("Graves", "Polished the silver in the hall.")

	got, err := j.Recall(ctx, "Graves", "Who went near the study with brandy?", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"The doctor asked about the study door.",
		`Graves: "The brandy was poured at ten."`,
	}, got, "equal scores favour the most recent memory")

	got, err = j.Recall(ctx, "Graves", "study brandy", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = j.Recall(ctx, "Nobody", "study", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}
