package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidPhase is returned when an operation is attempted outside its legal phase.
var ErrInvalidPhase = errors.New("invalid phase")

// ErrNotFound is returned when a clue, location or character id is unknown.
var ErrNotFound = errors.New("not found")

// ErrOracleFailure wraps failures of the decision oracle (unreachable, timed out, unparsable).
var ErrOracleFailure = errors.New("oracle failure")

// ErrIntegrityViolation signals a caller contract violation, such as binding a scenario twice.
var ErrIntegrityViolation = errors.New("integrity violation")

// ErrSessionNotFound is returned when a session ID cannot be found in the registry.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidAction is returned when a player action is malformed (unknown type, missing target).
var ErrInvalidAction = errors.New("invalid action")

// PhaseError reports an operation rejected because of the current phase.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Op, e.Phase)
}

func (e *PhaseError) Unwrap() error { return ErrInvalidPhase }
