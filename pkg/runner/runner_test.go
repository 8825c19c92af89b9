package runner_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit"
	"github.com/aretw0/whodunit/pkg/adapters/memory"
	"github.com/aretw0/whodunit/pkg/characters"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/game"
	"github.com/aretw0/whodunit/pkg/runner"
)

func playing(t *testing.T, opts ...whodunit.Option) (*whodunit.Engine, string) {
	t.Helper()
	ctx := context.Background()
	sc := memory.DefaultScenario()
	npcs, victim, err := characters.CastFor(sc, characters.Default())
	require.NoError(t, err)

	eng := whodunit.New(append([]whodunit.Option{whodunit.WithOracle(&memory.Oracle{})}, opts...)...)
	snap, err := eng.StartSession(ctx, characters.NewPlayer("Inspector Lane", domain.RoleDetective), npcs, victim)
	require.NoError(t, err)
	_, err = eng.BindScenario(ctx, snap.SessionID, sc)
	require.NoError(t, err)
	return eng, snap.SessionID
}

func run(t *testing.T, g runner.Game, id, script string, opts ...runner.Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]runner.Option{runner.WithInput(strings.NewReader(script)), runner.WithOutput(&out)}, opts...)
	err := runner.NewRunner(opts...).Run(context.Background(), g, id)
	return out.String(), err
}

func TestRun_FullGame(t *testing.T) {
	eng, id := playing(t)

	out, err := run(t, eng, id, strings.Join([]string{
		"help",
		"dance",
		"talk Graves Where were you at ten?",
		"move drawing_room",
		"investigate",
		"clues",
		"accuse dr. evelyn hart It was the brandy.",
		"look",
	}, "\n"))
	require.NoError(t, err)

	assert.Contains(t, out, "# Death at Ashcombe Manor")
	assert.Contains(t, out, "You are **Inspector Lane**, the detective.")
	assert.Contains(t, out, "**The Great Hall**")
	assert.Contains(t, out, "**Commands**")
	assert.Contains(t, out, `unknown command "dance"`)
	assert.Contains(t, out, "--- Turn 1 ---")
	assert.Contains(t, out, "You move to **The Drawing Room**.")
	assert.Contains(t, out, "**Clue discovered:**")
	assert.Contains(t, out, "(turn 3) A note from the Colonel")
	assert.Contains(t, out, "## Case closed: correct")
	assert.Contains(t, out, "The killer was **Dr. Evelyn Hart**.")

	// Nothing runs after the accusation.
	assert.Equal(t, 1, strings.Count(out, "**The Great Hall**"))

	snap, err := eng.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseResults, snap.Phase)
}

func TestRun_Timeout(t *testing.T) {
	settings := game.DefaultSettings()
	settings.MaxTurns = 2
	eng, id := playing(t, whodunit.WithSettings(settings))

	out, err := run(t, eng, id, "wait\nwait\nwait\n")
	require.NoError(t, err)
	assert.Contains(t, out, "## Case closed: timeout")
	assert.Contains(t, out, "Time ran out.")
	assert.NotContains(t, out, "--- Turn 3 ---")
}

func TestRun_QuitAndEOF(t *testing.T) {
	eng, id := playing(t)

	out, err := run(t, eng, id, "quit\nwait\n")
	require.NoError(t, err)
	assert.Contains(t, out, "You leave the case unsolved.")
	assert.NotContains(t, out, "--- Turn 1 ---")

	// A last line without a newline still runs.
	out, err = run(t, eng, id, "wait")
	require.NoError(t, err)
	assert.Contains(t, out, "--- Turn 1 ---")
}

func TestRun_ErrorsAreShown(t *testing.T) {
	eng, id := playing(t)

	out, err := run(t, eng, id, "move kitchen_garden\ntalk Colonel Barrow hello\n")
	require.NoError(t, err)
	assert.Contains(t, out, "You can't reach that location from here.")
	assert.Contains(t, out, "Colonel Barrow isn't here.")
}

func TestRun_InputRejected(t *testing.T) {
	eng, id := playing(t)

	out, err := run(t, eng, id, "talk Graves "+strings.Repeat("x", 40)+"\n", runner.WithSanitizer(runner.NewSanitizer(16)))
	require.NoError(t, err)
	assert.Contains(t, out, "Input rejected:")
}

func TestRun_Renderer(t *testing.T) {
	eng, id := playing(t)
	render := func(s string) (string, error) { return strings.ToUpper(s), nil }

	out, err := run(t, eng, id, "look\n", runner.WithRenderer(render))
	require.NoError(t, err)
	assert.Contains(t, out, "**THE GREAT HALL**")
}

func TestRun_NotPlaying(t *testing.T) {
	ctx := context.Background()
	npcs, victim, err := characters.CastFor(memory.DefaultScenario(), characters.Default())
	require.NoError(t, err)
	eng := whodunit.New(whodunit.WithOracle(&memory.Oracle{}))
	snap, err := eng.StartSession(ctx, characters.NewPlayer("", domain.RoleDetective), npcs, victim)
	require.NoError(t, err)

	_, err = run(t, eng, snap.SessionID, "wait\n")
	assert.ErrorContains(t, err, "not in play")

	_, err = run(t, eng, "missing", "wait\n")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type cancelledGame struct {
	runner.Game
}

func (g cancelledGame) Wait(context.Context, string) (*domain.TurnResult, error) {
	return nil, context.Canceled
}

func TestRun_CancellationStops(t *testing.T) {
	eng, id := playing(t)
	_, err := run(t, cancelledGame{Game: eng}, id, "wait\nwait\n")
	assert.True(t, errors.Is(err, context.Canceled))
}
