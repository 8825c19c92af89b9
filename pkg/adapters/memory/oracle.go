package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
)

// DecideFunc produces an agent decision.
type DecideFunc func(ctx context.Context, req ports.DecisionRequest) (ports.Decision, error)

// ConverseFunc produces an NPC reply.
type ConverseFunc func(ctx context.Context, req ports.DialogueRequest) (string, error)

// Oracle implements ports.DecisionOracle with plain functions. The zero
// value is usable: every agent waits and answers with its alibi.
type Oracle struct {
	DecideFunc   DecideFunc
	ConverseFunc ConverseFunc
}

// NewOracle returns an oracle whose agents wander between rooms.
func NewOracle(rng *rand.Rand) *Oracle {
	return &Oracle{DecideFunc: Wander(rng, 0.3)}
}

// Decide implements ports.DecisionOracle.
func (o *Oracle) Decide(ctx context.Context, req ports.DecisionRequest) (ports.Decision, error) {
	if err := ctx.Err(); err != nil {
		return ports.Decision{}, err
	}
	if o.DecideFunc == nil {
		return Idle(ctx, req)
	}
	return o.DecideFunc(ctx, req)
}

// Converse implements ports.DecisionOracle.
func (o *Oracle) Converse(ctx context.Context, req ports.DialogueRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if o.ConverseFunc == nil {
		return Alibi(ctx, req)
	}
	return o.ConverseFunc(ctx, req)
}

// Idle always waits.
func Idle(context.Context, ports.DecisionRequest) (ports.Decision, error) {
	return ports.Decision{Action: domain.ActionWait}, nil
}

// Wander moves to a random adjacent location with probability moveChance
// and otherwise waits. A nil rng is seeded randomly. It is safe for
// concurrent use.
func Wander(rng *rand.Rand, moveChance float64) DecideFunc {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	var mu sync.Mutex
	return func(_ context.Context, req ports.DecisionRequest) (ports.Decision, error) {
		if len(req.Adjacent) == 0 {
			return ports.Decision{Action: domain.ActionWait}, nil
		}
		mu.Lock()
		move := rng.Float64() < moveChance
		pick := rng.IntN(len(req.Adjacent))
		mu.Unlock()

		if !move {
			return ports.Decision{Action: domain.ActionWait}, nil
		}
		return ports.Decision{
			Action:          domain.ActionMove,
			Target:          req.Adjacent[pick].ID,
			InternalThought: "A change of scene might help.",
		}, nil
	}
}

// Alibi answers every question by repeating the character's alibi, read
// from its knowledge context.
func Alibi(_ context.Context, req ports.DialogueRequest) (string, error) {
	alibi := field(req.Knowledge, "Your alibi:")
	if alibi == "" {
		return "I'm afraid I have nothing to add.", nil
	}
	if len(req.History) > 0 {
		return fmt.Sprintf("As I said before: %s", alibi), nil
	}
	return alibi, nil
}

func field(text, prefix string) string {
	for _, line := range strings.Split(text, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
