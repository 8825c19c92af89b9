package clues

import (
	"math/rand/v2"
	"strings"

	"github.com/aretw0/whodunit/pkg/domain"
)

// Defaults of the reveal policy.
const (
	DefaultMediumTalkThreshold     = 4
	DefaultMediumInvestigateChance = 0.6
)

// Trigger is the action that made a clue eligible for review.
type Trigger string

const (
	TriggerTalk        Trigger = "talk"
	TriggerInvestigate Trigger = "investigate"
)

// HardRule decides whether a HARD clue is revealed. It receives the clues the
// player has already found so combination logic can cross-reference them.
type HardRule interface {
	Reveal(clue domain.Clue, trigger Trigger, discovered []domain.Clue) bool
}

// HardRuleFunc adapts a function to HardRule.
type HardRuleFunc func(clue domain.Clue, trigger Trigger, discovered []domain.Clue) bool

// Reveal calls f.
func (f HardRuleFunc) Reveal(clue domain.Clue, trigger Trigger, discovered []domain.Clue) bool {
	return f(clue, trigger, discovered)
}

// Corroborated reveals a HARD clue once at least n discovered clues point
// to the same character it does.
func Corroborated(n int) HardRule {
	return HardRuleFunc(func(clue domain.Clue, _ Trigger, discovered []domain.Clue) bool {
		if clue.PointsTo == "" {
			return false
		}
		count := 0
		for _, d := range discovered {
			if strings.EqualFold(d.PointsTo, clue.PointsTo) {
				count++
			}
		}
		return count >= n
	})
}

// RevealPolicy decides when a qualifying action reveals a clue.
type RevealPolicy struct {
	// MediumTalkThreshold is the number of conversation entries with an NPC
	// after which its MEDIUM clues are revealed.
	MediumTalkThreshold int
	// MediumInvestigateChance is the probability an INVESTIGATE reveals a MEDIUM location clue.
	MediumInvestigateChance float64
	// Hard is consulted for HARD clues. Nil means HARD clues are never revealed here.
	Hard HardRule

	rng *rand.Rand
}

// NewPolicy returns the default policy drawing chances from rng.
func NewPolicy(rng *rand.Rand) RevealPolicy {
	return RevealPolicy{
		MediumTalkThreshold:     DefaultMediumTalkThreshold,
		MediumInvestigateChance: DefaultMediumInvestigateChance,
		rng:                     rng,
	}
}

// WithRand returns a copy of p drawing from rng.
func (p RevealPolicy) WithRand(rng *rand.Rand) RevealPolicy {
	p.rng = rng
	return p
}

// OnTalk reports whether talking reveals a clue bound to the NPC, given the
// number of accumulated conversation entries with that NPC.
func (p RevealPolicy) OnTalk(clue domain.Clue, entries int, discovered []domain.Clue) bool {
	switch clue.Difficulty {
	case domain.DifficultyEasy:
		return true
	case domain.DifficultyMedium:
		return entries >= p.MediumTalkThreshold
	case domain.DifficultyHard:
		return p.hard(clue, TriggerTalk, discovered)
	default:
		return false
	}
}

// OnInvestigate reports whether investigating reveals a clue bound to the location.
func (p RevealPolicy) OnInvestigate(clue domain.Clue, discovered []domain.Clue) bool {
	switch clue.Difficulty {
	case domain.DifficultyEasy:
		return true
	case domain.DifficultyMedium:
		return p.chance() < p.MediumInvestigateChance
	case domain.DifficultyHard:
		return p.hard(clue, TriggerInvestigate, discovered)
	default:
		return false
	}
}

func (p RevealPolicy) hard(clue domain.Clue, trigger Trigger, discovered []domain.Clue) bool {
	if p.Hard == nil {
		return false
	}
	return p.Hard.Reveal(clue, trigger, discovered)
}

func (p RevealPolicy) chance() float64 {
	if p.rng == nil {
		return rand.Float64()
	}
	return p.rng.Float64()
}
