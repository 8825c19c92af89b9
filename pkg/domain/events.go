package domain

import (
	"context"
	"time"
)

// TurnStartEvent is emitted before the player action is resolved.
type TurnStartEvent struct {
	SessionID string
	Turn      int
	Action    PlayerAction
}

// TurnEndEvent is emitted after a turn is compiled.
type TurnEndEvent struct {
	SessionID string
	Turn      int
	Duration  time.Duration
	Groups    int
	Result    *TurnResult
}

// AgentEvent is emitted once per resolved agent, degraded or not.
type AgentEvent struct {
	SessionID string
	Turn      int
	Action    AgentAction
	Duration  time.Duration
}

// OracleFailureEvent is emitted when an oracle call is contained and degraded.
type OracleFailureEvent struct {
	SessionID string
	Turn      int
	Character string
	Err       error
}

// ClueEvent is emitted on the first discovery of a clue.
type ClueEvent struct {
	SessionID string
	Turn      int
	Clue      Clue
}

// PhaseEvent is emitted on every state machine transition.
type PhaseEvent struct {
	SessionID string
	From      Phase
	To        Phase
	Outcome   Outcome
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurnStart      func(context.Context, *TurnStartEvent)
	OnTurnEnd        func(context.Context, *TurnEndEvent)
	OnAgentResolved  func(context.Context, *AgentEvent)
	OnOracleFailure  func(context.Context, *OracleFailureEvent)
	OnClueDiscovered func(context.Context, *ClueEvent)
	OnPhaseChange    func(context.Context, *PhaseEvent)
}

// MergeHooks returns hooks that call each non-nil callback of hs in order.
func MergeHooks(hs ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range hs {
		merged.OnTurnStart = chain(merged.OnTurnStart, h.OnTurnStart)
		merged.OnTurnEnd = chain(merged.OnTurnEnd, h.OnTurnEnd)
		merged.OnAgentResolved = chain(merged.OnAgentResolved, h.OnAgentResolved)
		merged.OnOracleFailure = chain(merged.OnOracleFailure, h.OnOracleFailure)
		merged.OnClueDiscovered = chain(merged.OnClueDiscovered, h.OnClueDiscovered)
		merged.OnPhaseChange = chain(merged.OnPhaseChange, h.OnPhaseChange)
	}
	return merged
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, ev *E) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
