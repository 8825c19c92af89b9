package game

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/whodunit/internal/knowledge"
	"github.com/aretw0/whodunit/internal/world"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/scenario"
)

// Binding is the outcome of role resolution against a scenario.
type Binding struct {
	Player   domain.Character
	NPCs     []domain.Character
	Killer   string
	Scenario *scenario.Scenario
}

// BindRoles resolves roles for the cast. When the player is the killer, the
// scenario's killer is reassigned to the player and one non-victim NPC becomes
// the detective; the NPC named as killer is only promoted if no other is left.
// Otherwise the NPC named as killer becomes KILLER. The scenario is copied, never mutated.
func BindRoles(player domain.Character, npcs []domain.Character, victim string, sc *scenario.Scenario) (Binding, error) {
	bound := *sc
	b := Binding{Player: player, NPCs: slices.Clone(npcs), Scenario: &bound}

	for i := range b.NPCs {
		switch b.NPCs[i].Role {
		case domain.RoleSuspect, domain.RoleWitness, domain.RoleRedHerring:
		case domain.RoleDetective, domain.RoleKiller, domain.RoleVictim:
			b.NPCs[i].Role = domain.RoleSuspect
		default:
			b.NPCs[i].Role = domain.RoleSuspect
		}
		if b.NPCs[i].Name == victim {
			b.NPCs[i].Role = domain.RoleVictim
		}
	}

	switch player.Role {
	case domain.RoleKiller:
		detective := -1
		for i, npc := range b.NPCs {
			if npc.Role == domain.RoleVictim {
				continue
			}
			if detective < 0 || (b.NPCs[detective].Name == sc.Murder.Killer && npc.Name != sc.Murder.Killer) {
				detective = i
			}
		}
		if detective < 0 {
			return Binding{}, fmt.Errorf("no npc can be promoted to detective: %w", domain.ErrNotFound)
		}
		b.NPCs[detective].Role = domain.RoleDetective
		bound.Murder.Killer = player.Name
		b.Killer = player.Name

	case domain.RoleDetective:
		i := slices.IndexFunc(b.NPCs, func(c domain.Character) bool { return c.Name == sc.Murder.Killer })
		if i < 0 {
			return Binding{}, fmt.Errorf("scenario killer %q is not in the cast: %w", sc.Murder.Killer, domain.ErrNotFound)
		}
		b.NPCs[i].Role = domain.RoleKiller
		b.Killer = sc.Murder.Killer

	case domain.RoleSuspect, domain.RoleWitness, domain.RoleVictim, domain.RoleRedHerring:
		return Binding{}, fmt.Errorf("player role %q cannot play", player.Role)
	default:
		return Binding{}, fmt.Errorf("player role %q cannot play", player.Role)
	}
	return b, nil
}

// placeCast puts the player at the first location and each NPC at its default
// location, or at a random one. The victim is never placed.
func placeCast(g *world.Graph, player domain.Character, npcs []domain.Character, rng *rand.Rand) error {
	first, ok := g.First()
	if !ok {
		return fmt.Errorf("scenario has no locations: %w", domain.ErrNotFound)
	}
	if err := g.Place(player.Name, first.ID); err != nil {
		return err
	}

	for _, npc := range npcs {
		if npc.Role == domain.RoleVictim {
			continue
		}
		id, ok := "", false
		if def := npc.DefaultLocation(); def != "" {
			id, ok = g.Match(def)
		}
		if !ok {
			id, _ = g.RandomLocation(rng)
		}
		if err := g.Place(npc.Name, id); err != nil {
			return err
		}
	}
	return nil
}

// knowledgeStates seeds one State per living NPC. Profile secrets are merged in.
func knowledgeStates(sc *scenario.Scenario, npcs []domain.Character) []knowledge.State {
	states := make([]knowledge.State, 0, len(npcs))
	for _, npc := range npcs {
		if npc.Role == domain.RoleVictim {
			continue
		}
		k := sc.NPCKnowledge[npc.Name]
		s := knowledge.State{
			Name:            npc.Name,
			Alibi:           k.Alibi,
			TrueWhereabouts: k.TrueWhereabouts,
			KnownClues:      slices.Clone(k.KnownClues),
			Secrets:         slices.Clone(k.Secrets),
			Attitude:        k.Attitude,
			Suspicions:      k.Suspicions,
		}
		if npc.Profile != nil {
			for _, secret := range npc.Profile.Secrets {
				if !slices.Contains(s.Secrets, secret) {
					s.Secrets = append(s.Secrets, secret)
				}
			}
		}
		states = append(states, s)
	}
	return states
}
