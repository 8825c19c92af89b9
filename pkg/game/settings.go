package game

import (
	"time"

	"github.com/aretw0/whodunit/internal/clues"
	"github.com/aretw0/whodunit/internal/turn"
)

// Settings are the game rules of a session.
type Settings struct {
	MaxTurns                int           `yaml:"max_turns"`
	LocationsCount          int           `yaml:"locations_count"`
	OracleTimeout           time.Duration `yaml:"oracle_timeout"`
	MaxParallelGroups       int           `yaml:"max_parallel_groups"`
	MediumTalkThreshold     int           `yaml:"medium_talk_threshold"`
	MediumInvestigateChance float64       `yaml:"medium_investigate_chance"`
	StrictIntegrity         bool          `yaml:"strict_integrity"`
	// HardClueCorroboration is how many discovered clues must point at a
	// HARD clue's suspect before it can be revealed. Zero disables the rule.
	HardClueCorroboration int `yaml:"hard_clue_corroboration"`
	// Seed makes placement and reveal chances reproducible. Zero means random.
	Seed uint64 `yaml:"seed"`
}

// DefaultSettings returns the standard rules. HARD clues have no reveal
// rule by default.
func DefaultSettings() Settings {
	return Settings{
		MaxTurns:                30,
		LocationsCount:          6,
		OracleTimeout:           turn.DefaultOracleTimeout,
		MediumTalkThreshold:     clues.DefaultMediumTalkThreshold,
		MediumInvestigateChance: clues.DefaultMediumInvestigateChance,
	}
}
