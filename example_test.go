package whodunit_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/whodunit"
	"github.com/aretw0/whodunit/pkg/adapters/memory"
	"github.com/aretw0/whodunit/pkg/characters"
	"github.com/aretw0/whodunit/pkg/domain"
)

// Example plays a short offline game on the built-in scenario.
func Example() {
	ctx := context.Background()

	sc := memory.DefaultScenario()
	npcs, victim, err := characters.CastFor(sc, characters.Default())
	if err != nil {
		log.Fatal(err)
	}

	// The zero-value oracle keeps every NPC in place.
	eng := whodunit.New(whodunit.WithOracle(&memory.Oracle{}))

	player := characters.NewPlayer("Inspector Lane", domain.RoleDetective)
	snap, err := eng.StartSession(ctx, player, npcs, victim)
	if err != nil {
		log.Fatal(err)
	}
	id := snap.SessionID

	snap, err = eng.BindScenario(ctx, id, sc)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(snap.Phase, "at", snap.CurrentLocation.Name)

	res, err := eng.Investigate(ctx, id)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.PlayerResponse)

	result, err := eng.Accuse(ctx, id, "dr. evelyn hart", "The brandy.")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(result.Label, result.ActualKiller)
	// Output:
	// PLAYING at The Great Hall
	// *You search the area carefully but find nothing new.*
	// correct Dr. Evelyn Hart
}
