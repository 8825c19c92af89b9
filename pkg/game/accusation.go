package game

import (
	"fmt"
	"strings"

	"github.com/aretw0/whodunit/pkg/domain"
)

// ResolveAccusation decides the outcome of an accusation.
// A killer player wins whoever they accuse.
func ResolveAccusation(playerRole domain.Role, accused, killer string) domain.Outcome {
	switch playerRole {
	case domain.RoleKiller:
		return domain.OutcomeKillerWins
	case domain.RoleDetective:
		if killer != "" && strings.EqualFold(strings.TrimSpace(accused), strings.TrimSpace(killer)) {
			return domain.OutcomeDetectiveWins
		}
		return domain.OutcomeWrongAccusation
	case domain.RoleSuspect, domain.RoleWitness, domain.RoleVictim, domain.RoleRedHerring:
		return domain.OutcomeWrongAccusation
	default:
		return domain.OutcomeWrongAccusation
	}
}

// Result is the final report of a game.
type Result struct {
	Outcome      domain.Outcome `json:"outcome"`
	Label        string         `json:"label"`
	Accused      string         `json:"accused,omitempty"`
	Reasoning    string         `json:"reasoning,omitempty"`
	ActualKiller string         `json:"actual_killer"`
	TurnsTaken   int            `json:"turns_taken"`
	CluesFound   int            `json:"clues_found"`
	TotalClues   int            `json:"total_clues"`
	Ending       string         `json:"narrative_ending"`
}

// fallbackEnding is used when no narrator is configured or it fails.
func fallbackEnding(outcome domain.Outcome, accused, killer string) string {
	switch outcome {
	case domain.OutcomeDetectiveWins:
		return fmt.Sprintf("You named %s, and the evidence held. The case is closed.", killer)
	case domain.OutcomeWrongAccusation:
		return fmt.Sprintf("You named %s, but the true killer was %s. They slip away into the night.", accused, killer)
	case domain.OutcomeKillerWins:
		return fmt.Sprintf("You pointed the finger at %s. By the time the truth surfaced, you were long gone.", accused)
	case domain.OutcomeTimeout:
		return fmt.Sprintf("Time ran out. The killer, %s, was never brought to justice.", killer)
	case domain.OutcomeNone:
		return ""
	default:
		return ""
	}
}
