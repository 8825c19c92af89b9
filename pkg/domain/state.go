package domain

// Phase is a state of the game state machine.
type Phase string

const (
	PhaseSetup       Phase = "SETUP"
	PhaseScenarioGen Phase = "SCENARIO_GEN"
	PhasePlaying     Phase = "PLAYING"
	PhaseAccusation  Phase = "ACCUSATION"
	PhaseResults     Phase = "RESULTS"
	PhaseFinished    Phase = "FINISHED"
)

// Terminal reports whether no further turns can be played in this phase.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseResults, PhaseFinished:
		return true
	case PhaseSetup, PhaseScenarioGen, PhasePlaying, PhaseAccusation:
		return false
	default:
		return false
	}
}

// Outcome is how a finished game ended.
type Outcome string

const (
	OutcomeNone            Outcome = ""
	OutcomeDetectiveWins   Outcome = "DETECTIVE_WINS"
	OutcomeWrongAccusation Outcome = "WRONG_ACCUSATION"
	OutcomeKillerWins      Outcome = "KILLER_WINS"
	OutcomeTimeout         Outcome = "TIMEOUT"
)

// Label is the short machine-friendly verdict shown with results.
func (o Outcome) Label() string {
	switch o {
	case OutcomeDetectiveWins:
		return "correct"
	case OutcomeWrongAccusation:
		return "wrong"
	case OutcomeKillerWins:
		return "killer_revealed"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeNone:
		return ""
	default:
		return ""
	}
}
