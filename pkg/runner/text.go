package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/game"
)

const helpText = `**Commands**

- look: describe where you are
- move <location>: go to an adjacent location
- talk <name> <message>: speak to someone here
- investigate: search this location
- wait: let time pass
- accuse <name> [reasoning]: name the killer and end the game
- clues: list what you have found
- quit: give up`

func intro(s game.Snapshot) string {
	var sb strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", s.Title)
	}
	if s.Setting != "" {
		fmt.Fprintf(&sb, "*%s*\n\n", s.Setting)
	}
	if s.OpeningNarration != "" {
		fmt.Fprintf(&sb, "%s\n\n", s.OpeningNarration)
	}
	switch s.PlayerRole {
	case domain.RoleKiller:
		fmt.Fprintf(&sb, "You are **%s**. %s is dead, and only you know why. Stay hidden.", s.PlayerName, s.Victim)
	default:
		fmt.Fprintf(&sb, "You are **%s**, the detective. %s is dead. Find the killer within %d turns.", s.PlayerName, s.Victim, s.MaxTurns)
	}
	return sb.String()
}

func look(s game.Snapshot) string {
	if s.CurrentLocation == nil {
		return "You are nowhere in particular."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**\n\n", s.CurrentLocation.Name)
	if s.CurrentLocation.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", s.CurrentLocation.Description)
	}
	if len(s.CharactersHere) > 0 {
		fmt.Fprintf(&sb, "Present here: %s\n\n", strings.Join(s.CharactersHere, ", "))
	} else {
		sb.WriteString("There's no one else here.\n\n")
	}
	exits := make([]string, 0, len(s.Adjacent))
	for _, l := range s.Adjacent {
		exits = append(exits, fmt.Sprintf("%s (%s)", l.Name, l.ID))
	}
	if len(exits) > 0 {
		fmt.Fprintf(&sb, "Exits: %s\n\n", strings.Join(exits, ", "))
	}
	fmt.Fprintf(&sb, "Turn %d/%d. %s", s.Turn, s.MaxTurns, s.Clues.Summary)
	return sb.String()
}

func cluesText(s game.Snapshot) string {
	if len(s.Clues.Found) == 0 {
		return "You haven't found any clues yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**\n", s.Clues.Summary)
	for _, c := range s.Clues.Found {
		fmt.Fprintf(&sb, "\n- (turn %d) %s", c.Turn, c.Description)
	}
	return sb.String()
}

func resultText(r *game.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Case closed: %s\n\n", r.Label)
	if r.Accused != "" {
		fmt.Fprintf(&sb, "You accused **%s**. ", r.Accused)
	} else if r.Outcome == domain.OutcomeTimeout {
		sb.WriteString("Time ran out. ")
	}
	fmt.Fprintf(&sb, "The killer was **%s**.\n\n", r.ActualKiller)
	fmt.Fprintf(&sb, "Turns taken: %d. Clues found: %d/%d.\n\n", r.TurnsTaken, r.CluesFound, r.TotalClues)
	sb.WriteString(r.Ending)
	return sb.String()
}
