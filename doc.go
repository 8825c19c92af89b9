/*
Package whodunit is a turn-based murder-mystery engine: one human player and
a cast of oracle-driven NPCs share a graph of locations, and every player
action resolves one turn for everyone.

# Concept

A session walks a small state machine:

	SETUP -> SCENARIO_GEN -> PLAYING -> ACCUSATION -> RESULTS -> FINISHED

A scenario (locations, clues, the killer and what each NPC knows) is either
produced by a ports.ScenarioGenerator or bound directly. While PLAYING, each
player action is resolved first; then the NPCs are grouped by location, the
groups run concurrently and the NPCs inside a group act one after another so
that later ones see what earlier ones did. Oracle failures never abort a
turn: the affected NPC simply waits.

What the player sees is partitioned from what the NPCs know. Snapshots and
turn results returned by the Engine never reveal the killer (unless the
player is the killer), any NPC's secrets, or events outside the player's
location.

# Usage

An offline game needs only the in-memory adapters:

	sc := memory.DefaultScenario()
	npcs, victim, _ := characters.CastFor(sc, characters.Default())

	eng := whodunit.New(whodunit.WithOracle(memory.NewOracle(nil)))
	snap, _ := eng.StartSession(ctx, characters.NewPlayer("Inspector", domain.RoleDetective), npcs, victim)
	eng.BindScenario(ctx, snap.SessionID, sc)

	res, _ := eng.Investigate(ctx, snap.SessionID)
	fmt.Println(res.Summary)

For a model-backed game, use the oracle, generator and narrator from
pkg/adapters/openai. The same Engine is exposed over HTTP (pkg/adapters/http),
as MCP tools (pkg/adapters/mcp) and as an interactive terminal loop
(pkg/runner).
*/
package whodunit
