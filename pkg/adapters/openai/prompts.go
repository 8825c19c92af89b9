package openai

import (
	"fmt"
	"strings"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
)

const decisionSystem = `You are roleplaying as %[1]s in a murder mystery game.

%[2]s

%[3]s

CURRENT SITUATION:
- Location: %[4]s (%[5]s)
- Others here: %[6]s
- You can move to: %[7]s
- Turn: %[8]d

%[9]s

Decide what %[1]s does this turn. Stay in character.
Would they move somewhere? Talk to someone present? Investigate? Stay quiet?

Respond with JSON only:
{
  "action": "move|talk|investigate|wait",
  "target": "location id for move, character name for talk",
  "dialogue": "what they say out loud, if anything",
  "internal_thought": "what they privately think"
}`

func decisionPrompt(req ports.DecisionRequest) string {
	adjacent := make([]string, 0, len(req.Adjacent))
	for _, l := range req.Adjacent {
		adjacent = append(adjacent, fmt.Sprintf("%s (%s)", l.ID, l.Name))
	}
	recent := "Nothing has happened here yet this turn."
	if len(req.RecentEvents) > 0 {
		recent = "Just happened here:\n- " + strings.Join(req.RecentEvents, "\n- ")
	}
	return fmt.Sprintf(decisionSystem,
		req.Character.Name,
		req.Character.Persona(),
		req.Knowledge,
		req.Location.Name, req.Location.ID,
		listOr(req.CoPresent, "no one"),
		listOr(adjacent, "nowhere"),
		req.Turn,
		recent,
	)
}

const dialogueSystem = `You are %[1]s in a murder mystery game. Stay in character.

%[2]s

%[3]s

You are currently at: %[4]s
Others present: %[5]s

The player (%[6]s) is talking to you. Respond in character.
Do NOT reveal your secrets easily. Be natural, suspicious, or helpful according to your personality.
If you have a clue the player might want, hint at it but don't give it away freely.
Keep responses concise (2-4 paragraphs max) and atmospheric.`

func dialoguePrompt(req ports.DialogueRequest) string {
	return fmt.Sprintf(dialogueSystem,
		req.Character.Name,
		req.Character.Persona(),
		req.Knowledge,
		req.Location.Name,
		listOr(req.CoPresent, "no one else"),
		req.Player,
	)
}

const scenarioSystem = `You are a master mystery writer creating an interactive murder mystery.

Create a scenario that:
1. Establishes a setting that fits the characters
2. Defines the murder: who was killed, how, when, where, and why
3. Names exactly one NPC as the killer (never the player, never the victim)
4. Creates clues that lead to the killer, in three tiers: easy (obvious), medium (requires asking the right questions), hard (requires combining evidence)
5. Gives every NPC an alibi, their true whereabouts, secrets, an attitude and suspicions
6. Adds red herrings that point to innocent characters
7. Designs connected locations for characters to move between

The scenario must be solvable. Every NPC must have something to hide.
Respond ONLY with valid JSON matching the schema provided.`

const scenarioSchema = `{
  "title": "Scenario title",
  "setting": "The setting",
  "time_period": "When the story takes place",
  "backstory": "Events leading up to the murder",
  "murder": {"victim": "%[1]s", "killer": "NPC name", "method": "", "motive": "", "time_of_death": "", "location_of_death": "location_id"},
  "locations": [{"id": "location_id", "name": "Name", "description": "", "connected_to": ["other_location_id"]}],
  "clues": [{"id": "clue_id", "description": "", "points_to": "character name", "difficulty": "easy|medium|hard", "found_at": "location_id or NPC name", "type": "physical|testimony|document|observation"}],
  "npc_knowledge": {"NPC Name": {"alibi": "", "true_whereabouts": "", "known_clues": ["clue_id"], "secrets": [""], "attitude": "", "suspicions": ""}},
  "red_herrings": [{"description": "", "implicates": "", "truth": ""}],
  "opening_narration": "Atmospheric text read to the player when the game begins"
}`

func scenarioPrompt(req ports.GenerationRequest) string {
	var sb strings.Builder
	sb.WriteString("Create a murder mystery scenario with these characters.\n\nPLAYER CHARACTER:\n")
	fmt.Fprintf(&sb, "%s\n- Role: %s\n", indent(req.Player.Persona()), req.Player.Role)

	sb.WriteString("\nNPC CHARACTERS:\n")
	for _, npc := range req.NPCs {
		sb.WriteString(indent(npc.Persona()))
		if npc.Profile != nil && len(npc.Profile.PossibleRoles) > 0 {
			roles := make([]string, len(npc.Profile.PossibleRoles))
			for i, r := range npc.Profile.PossibleRoles {
				roles[i] = string(r)
			}
			fmt.Fprintf(&sb, "\n- Suited to: %s", strings.Join(roles, ", "))
		}
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "VICTIM (already selected):\n%s\n\n", indent(req.Victim.Persona()))
	if req.LocationsCount > 0 {
		fmt.Fprintf(&sb, "Use exactly %d locations, every one reachable from the first.\n", req.LocationsCount)
	}
	if req.Player.Role == domain.RoleKiller {
		sb.WriteString("The player will secretly take the killer's place, so make the killer an NPC whose role can be reassigned.\n")
	}
	sb.WriteString("Every npc_knowledge key must be one of the NPC names above.\n\n")
	fmt.Fprintf(&sb, "Generate the scenario as JSON with this exact schema:\n"+scenarioSchema, req.Victim.Name)
	return sb.String()
}

const endingSystem = "You are a master mystery narrator. Write atmospheric, cinematic conclusions."

func endingPrompt(req ports.EndingRequest) string {
	var sb strings.Builder
	sb.WriteString("Write a dramatic concluding narration for a murder mystery game.\n\n")
	if sc := req.Scenario; sc != nil {
		fmt.Fprintf(&sb, "Scenario: %s\nSetting: %s\n", sc.Title, sc.Setting)
		fmt.Fprintf(&sb, "The murder: %s was killed by %s.\nMethod: %s\nMotive: %s\n\n",
			sc.Murder.Victim, sc.Murder.Killer, sc.Murder.Method, sc.Murder.Motive)
	}
	reasoning := req.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	fmt.Fprintf(&sb, "The player (role: %s) accused: %s\nOutcome: %s\nPlayer's reasoning: %s\n",
		req.Player.Role, listOr(nonEmpty(req.Accused), "no one"), req.Outcome.Label(), reasoning)
	fmt.Fprintf(&sb, "Clues discovered: %d\nTurns taken: %d\n\n", req.CluesFound, req.TurnsTaken)
	sb.WriteString("Write a 2-3 paragraph conclusion that reveals the full truth. ")
	sb.WriteString("If the player was correct, make it triumphant. If wrong, make it bittersweet.")
	return sb.String()
}

func listOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func indent(persona string) string {
	return "- " + strings.ReplaceAll(persona, "\n", "\n- ")
}
