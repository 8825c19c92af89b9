package turn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/whodunit/internal/clues"
	"github.com/aretw0/whodunit/internal/knowledge"
	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/internal/world"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
)

const tracerName = "github.com/aretw0/whodunit/internal/turn"

// DefaultOracleTimeout bounds a single oracle call.
const DefaultOracleTimeout = 30 * time.Second

// Cast lists the characters of a session.
type Cast struct {
	Player domain.Character
	NPCs   []domain.Character
	Victim domain.Character
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = h
	}
}

// WithSessionID tags hook events with the owning session.
func WithSessionID(id string) Option {
	return func(e *Engine) {
		e.sessionID = id
	}
}

// WithOracleTimeout bounds every oracle call. Zero disables the bound.
func WithOracleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.oracleTimeout = d
	}
}

// WithMaxParallel caps how many location groups resolve at once. Zero means no cap.
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		e.maxParallel = n
	}
}

// WithPolicy overrides the reveal policy.
func WithPolicy(p clues.RevealPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithTracerProvider sets the provider used for turn, group and agent spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(tracerName)
	}
}

// Engine resolves turns for one session.
type Engine struct {
	world     *world.Graph
	knowledge *knowledge.Partition
	ledger    *clues.Ledger
	oracle    ports.DecisionOracle
	policy    clues.RevealPolicy

	player     domain.Character
	characters map[string]domain.Character

	// mu serializes mutations applied by concurrent location groups.
	mu        sync.Mutex
	histories map[string][]ports.Exchange

	sessionID     string
	oracleTimeout time.Duration
	maxParallel   int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	tracer        trace.Tracer
}

// New creates an engine over the session managers.
func New(w *world.Graph, k *knowledge.Partition, l *clues.Ledger, oracle ports.DecisionOracle, cast Cast, opts ...Option) *Engine {
	e := &Engine{
		world:         w,
		knowledge:     k,
		ledger:        l,
		oracle:        oracle,
		policy:        clues.NewPolicy(nil),
		player:        cast.Player,
		characters:    make(map[string]domain.Character, len(cast.NPCs)+2),
		histories:     make(map[string][]ports.Exchange),
		oracleTimeout: DefaultOracleTimeout,
		logger:        logging.NewNop(),
		tracer:        otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, c := range cast.NPCs {
		e.characters[c.Name] = c
	}
	if cast.Victim.Name != "" {
		e.characters[cast.Victim.Name] = cast.Victim
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve runs one full turn for the player action.
// ACCUSE is never resolved here; the game machine intercepts it.
func (e *Engine) Resolve(ctx context.Context, turn int, action domain.PlayerAction) (*domain.TurnResult, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	if action.Type == domain.ActionAccuse {
		return nil, fmt.Errorf("%w: accusations are resolved by the game machine", domain.ErrIntegrityViolation)
	}

	ctx, span := e.tracer.Start(ctx, "turn.resolve", trace.WithAttributes(
		attribute.Int("turn", turn),
		attribute.String("action", string(action.Type)),
	))
	defer span.End()

	start := time.Now()
	if e.hooks.OnTurnStart != nil {
		e.hooks.OnTurnStart(ctx, &domain.TurnStartEvent{SessionID: e.sessionID, Turn: turn, Action: action})
	}

	result := &domain.TurnResult{Turn: turn, PlayerAction: action}
	result.PlayerResponse = e.resolvePlayer(ctx, turn, action, result)

	playerLoc, _ := e.world.LocationOf(e.player.Name)
	groups := e.world.GroupByLocation(e.excluded()...)
	actions := e.resolveGroups(ctx, turn, groups)
	e.compile(result, actions, playerLoc)

	span.SetAttributes(attribute.Int("groups", len(groups)), attribute.Int("agents", len(actions)))
	e.logger.DebugContext(ctx, "turn resolved", "turn", turn, "groups", len(groups), "agents", len(actions))
	if e.hooks.OnTurnEnd != nil {
		e.hooks.OnTurnEnd(ctx, &domain.TurnEndEvent{
			SessionID: e.sessionID,
			Turn:      turn,
			Duration:  time.Since(start),
			Groups:    len(groups),
			Result:    result,
		})
	}
	return result, nil
}

// History returns the conversation the player had with npc.
func (e *Engine) History(npc string) []ports.Exchange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.Exchange(nil), e.histories[npc]...)
}

// excluded lists the characters that never act: the player and the victim.
func (e *Engine) excluded() []string {
	out := []string{e.player.Name}
	for name, c := range e.characters {
		if c.Role == domain.RoleVictim {
			out = append(out, name)
		}
	}
	return out
}

// character resolves ref to a cast member, exactly or case-insensitively.
func (e *Engine) character(ref string) (domain.Character, bool) {
	if c, ok := e.characters[ref]; ok {
		return c, true
	}
	ref = strings.TrimSpace(ref)
	for name, c := range e.characters {
		if strings.EqualFold(name, ref) {
			return c, true
		}
	}
	return domain.Character{}, false
}

func (e *Engine) locationName(id string) string {
	if loc, ok := e.world.Location(id); ok && loc.Name != "" {
		return loc.Name
	}
	return id
}

func (e *Engine) oracleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.oracleTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.oracleTimeout)
}

func (e *Engine) oracleFailed(ctx context.Context, turn int, character string, err error) {
	e.logger.WarnContext(ctx, "oracle call failed, degrading to WAIT", "npc", character, "turn", turn, "err", err)
	if e.hooks.OnOracleFailure != nil {
		e.hooks.OnOracleFailure(ctx, &domain.OracleFailureEvent{SessionID: e.sessionID, Turn: turn, Character: character, Err: err})
	}
}

func (e *Engine) discover(ctx context.Context, turn int, id string) (domain.Clue, bool) {
	c, ok := e.ledger.Discover(id, e.player.Name, turn)
	if ok && e.hooks.OnClueDiscovered != nil {
		e.hooks.OnClueDiscovered(ctx, &domain.ClueEvent{SessionID: e.sessionID, Turn: turn, Clue: c})
	}
	return c, ok
}

func others(names []string, skip ...string) []string {
	var out []string
outer:
	for _, n := range names {
		for _, s := range skip {
			if n == s {
				continue outer
			}
		}
		out = append(out, n)
	}
	return out
}
